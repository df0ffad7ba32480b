package application

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/Mielola/api-photobooth/internal/domain"
)

// Archive is a finished zip on the scratch disk. The caller streams it
// out and removes the file afterwards.
type Archive struct {
	Path     string
	Name     string
	Count    int
	TempFile bool
}

func (a Archive) Cleanup() {
	if a.TempFile && a.Path != "" {
		_ = os.Remove(a.Path)
	}
}

// buildZip assembles the photos into a zip under the scratch dir.
// Entries are named foto_1.jpg, foto_2.png, ... in input order; a photo
// whose blob has gone missing is skipped, not fatal.
func (s *BoothService) buildZip(photos []domain.Photo, name string) (Archive, error) {
	if len(photos) == 0 {
		return Archive{}, domain.ErrNoPhotos
	}
	if err := os.MkdirAll(s.cfg.ScratchDir, 0o755); err != nil {
		return Archive{}, err
	}

	f, err := os.CreateTemp(s.cfg.ScratchDir, "archive-*.zip")
	if err != nil {
		return Archive{}, err
	}
	zw := zip.NewWriter(f)

	count := 0
	for i, photo := range photos {
		src, err := s.blobs.Open(photo.Path)
		if err != nil {
			s.log.Warn().Str("photo_uid", photo.UID).Str("path", photo.Path).Msg("photo blob missing, skipped in archive")
			continue
		}
		entry := fmt.Sprintf("foto_%d%s", i+1, normalizeExt(path.Ext(photo.Path)))
		w, err := zw.Create(entry)
		if err != nil {
			_ = src.Close()
			abortZip(zw, f)
			return Archive{}, err
		}
		_, err = io.Copy(w, src)
		_ = src.Close()
		if err != nil {
			abortZip(zw, f)
			return Archive{}, err
		}
		count++
	}

	if err := zw.Close(); err != nil {
		abortZip(nil, f)
		return Archive{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return Archive{}, err
	}
	return Archive{Path: f.Name(), Name: name, Count: count, TempFile: true}, nil
}

func abortZip(zw *zip.Writer, f *os.File) {
	if zw != nil {
		_ = zw.Close()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
}

// SessionArchive is the guest-facing download: framed shots only, and
// only once the session has an email on file.
func (s *BoothService) SessionArchive(ctx context.Context, sessionUID string) (Archive, error) {
	session, err := s.store.GetSessionByUID(ctx, sessionUID)
	if err != nil {
		return Archive{}, err
	}
	if session.Email == "" {
		return Archive{}, domain.ErrEmailRequired
	}

	kind := domain.PhotoKindFramed
	photos, err := s.store.ListPhotosBySession(ctx, session.ID, &kind)
	if err != nil {
		return Archive{}, err
	}
	if len(photos) == 0 {
		return Archive{}, domain.ErrNoPhotos
	}

	event, err := s.store.GetEventByID(ctx, session.EventID)
	if err != nil {
		return Archive{}, err
	}
	name := fmt.Sprintf("%s_%s.zip", SlugUnderscore(event.CoupleName), session.UID)
	return s.buildZip(photos, name)
}

// ReprintSession rebuilds a session's full photo set for the printer.
// No email gate and no kind filter: this is an operator action, not a
// guest download.
func (s *BoothService) ReprintSession(ctx context.Context, sessionUID string) (Archive, error) {
	session, err := s.store.GetSessionByUID(ctx, sessionUID)
	if err != nil {
		return Archive{}, err
	}
	photos, err := s.store.ListPhotosBySession(ctx, session.ID, nil)
	if err != nil {
		return Archive{}, err
	}
	if len(photos) == 0 {
		return Archive{}, domain.ErrNoPhotos
	}
	name := fmt.Sprintf("reprint_%s.zip", session.UID)
	return s.buildZip(photos, name)
}

// ReprintLastSession resolves the event's newest session and reprints it.
func (s *BoothService) ReprintLastSession(ctx context.Context, eventUID string) (Archive, error) {
	event, err := s.store.GetEventByUID(ctx, eventUID)
	if err != nil {
		return Archive{}, err
	}
	session, err := s.store.LatestSessionByEvent(ctx, event.ID)
	if err != nil {
		return Archive{}, err
	}
	return s.ReprintSession(ctx, session.UID)
}

// EventArchive bundles every photo taken at an event, framed and
// original alike. Operator-side export after the event wraps up.
func (s *BoothService) EventArchive(ctx context.Context, eventUID string) (Archive, error) {
	event, err := s.store.GetEventByUID(ctx, eventUID)
	if err != nil {
		return Archive{}, err
	}
	photos, err := s.store.ListPhotosByEvent(ctx, event.ID)
	if err != nil {
		return Archive{}, err
	}
	if len(photos) == 0 {
		return Archive{}, domain.ErrNoPhotos
	}
	name := fmt.Sprintf("%s.zip", path.Base(EventFolder(event)))
	return s.buildZip(photos, name)
}
