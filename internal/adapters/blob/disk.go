package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps blobs as plain files under a single root directory.
// All paths handed to it are relative, slash-separated storage paths.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Root() string { return s.root }

func (s *DiskStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(path))
	full := filepath.Join(s.root, cleaned)
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes blob root: %s", path)
	}
	return full, nil
}

func (s *DiskStore) Write(path string, r io.Reader) (string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return path, nil
}

func (s *DiskStore) Open(path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *DiskStore) Exists(path string) bool {
	full, err := s.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (s *DiskStore) EnsureDir(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0o755)
}

func (s *DiskStore) Delete(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DiskStore) DeleteTree(prefix string) error {
	full, err := s.resolve(prefix)
	if err != nil {
		return err
	}
	if full == s.root {
		return errors.New("refusing to delete blob root")
	}
	return os.RemoveAll(full)
}

func (s *DiskStore) ListFiles(prefix string) ([]string, error) {
	full, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{prefix}, nil
	}

	files := make([]string, 0)
	err = filepath.WalkDir(full, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, p)
		if relErr != nil {
			return relErr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *DiskStore) PublicURL(path string) string {
	if path == "" {
		return ""
	}
	return s.baseURL + "/storage/" + strings.TrimLeft(filepath.ToSlash(path), "/")
}
