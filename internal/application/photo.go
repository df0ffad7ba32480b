package application

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/Mielola/api-photobooth/internal/domain"
)

type IngestPhotoInput struct {
	SessionUID string
	Kind       domain.PhotoKind
	FrameUID   string
	Image      ImageUpload
}

type IngestedPhoto struct {
	Photo domain.Photo
	Frame *domain.Frame
}

// IngestPhoto stores a shot taken during a live session. The blob is
// written first; if the row insert fails the blob is removed again.
// Framed shots must name an existing frame; it is resolved before
// anything is stored and echoed back for compositing.
func (s *BoothService) IngestPhoto(ctx context.Context, in IngestPhotoInput) (IngestedPhoto, error) {
	if !in.Kind.Valid() {
		return IngestedPhoto{}, fmt.Errorf("unknown photo kind %q", in.Kind)
	}
	session, err := s.store.GetSessionByUID(ctx, in.SessionUID)
	if err != nil {
		return IngestedPhoto{}, err
	}
	if !SessionActive(session, s.clock.Now()) {
		return IngestedPhoto{}, domain.ErrSessionExpired
	}
	event, err := s.store.GetEventByID(ctx, session.EventID)
	if err != nil {
		return IngestedPhoto{}, err
	}

	var frame *domain.Frame
	if in.Kind == domain.PhotoKindFramed {
		f, err := s.store.GetFrameByUID(ctx, in.FrameUID)
		if err != nil {
			return IngestedPhoto{}, err
		}
		frame = &f
	}

	dest := SessionFolder(event, session) + "/" + PhotoFilename(in.Kind, s.clock.Now(), in.Image.Ext)
	stored, err := s.blobs.Write(dest, in.Image.Reader)
	if err != nil {
		return IngestedPhoto{}, fmt.Errorf("store photo: %w", err)
	}

	photo, err := s.store.CreatePhoto(ctx, domain.Photo{
		Kind:      in.Kind,
		Path:      stored,
		SessionID: session.ID,
	})
	if err != nil {
		_ = s.blobs.Delete(stored)
		return IngestedPhoto{}, err
	}
	return IngestedPhoto{Photo: photo, Frame: frame}, nil
}

type RetakePhotoInput struct {
	PhotoUID string
	Kind     *domain.PhotoKind
	Image    ImageUpload
}

// RetakePhoto replaces a photo's blob while the row keeps its uid. The
// old blob is removed first (a miss is fine) and the replacement gets a
// fresh filename so caches never serve the stale shot.
func (s *BoothService) RetakePhoto(ctx context.Context, in RetakePhotoInput) (domain.Photo, error) {
	photo, err := s.store.GetPhotoByUID(ctx, in.PhotoUID)
	if err != nil {
		return domain.Photo{}, err
	}
	session, err := s.store.GetSessionByID(ctx, photo.SessionID)
	if err != nil {
		return domain.Photo{}, err
	}
	if !SessionActive(session, s.clock.Now()) {
		return domain.Photo{}, domain.ErrSessionExpired
	}
	event, err := s.store.GetEventByID(ctx, session.EventID)
	if err != nil {
		return domain.Photo{}, err
	}

	if in.Kind != nil {
		if !in.Kind.Valid() {
			return domain.Photo{}, fmt.Errorf("unknown photo kind %q", *in.Kind)
		}
		photo.Kind = *in.Kind
	}

	if err := s.blobs.Delete(photo.Path); err != nil {
		return domain.Photo{}, fmt.Errorf("remove old photo: %w", err)
	}

	dest := SessionFolder(event, session) + "/" + PhotoFilename(photo.Kind, s.clock.Now(), in.Image.Ext)
	stored, err := s.blobs.Write(dest, in.Image.Reader)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("store photo: %w", err)
	}
	photo.Path = stored

	updated, err := s.store.UpdatePhoto(ctx, photo)
	if err != nil {
		_ = s.blobs.Delete(stored)
		return domain.Photo{}, err
	}
	return updated, nil
}

func (s *BoothService) GetPhoto(ctx context.Context, uid string) (domain.Photo, error) {
	return s.store.GetPhotoByUID(ctx, uid)
}

func (s *BoothService) PhotosBySession(ctx context.Context, sessionUID string, kind *domain.PhotoKind) ([]domain.Photo, error) {
	if kind != nil && !kind.Valid() {
		return nil, fmt.Errorf("unknown photo kind %q", *kind)
	}
	session, err := s.store.GetSessionByUID(ctx, sessionUID)
	if err != nil {
		return nil, err
	}
	return s.store.ListPhotosBySession(ctx, session.ID, kind)
}

func (s *BoothService) DeletePhoto(ctx context.Context, uid string) error {
	photo, err := s.store.GetPhotoByUID(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(photo.Path); err != nil {
		return fmt.Errorf("remove photo blob: %w", err)
	}
	return s.store.DeletePhoto(ctx, photo.ID)
}

// OpenPhoto hands back the blob stream plus a filename for the
// Content-Disposition header.
func (s *BoothService) OpenPhoto(ctx context.Context, uid string) (domain.Photo, string, error) {
	photo, err := s.store.GetPhotoByUID(ctx, uid)
	if err != nil {
		return domain.Photo{}, "", err
	}
	if !s.blobs.Exists(photo.Path) {
		return domain.Photo{}, "", domain.ErrPhotoNotFound
	}
	return photo, path.Base(photo.Path), nil
}

func (s *BoothService) OpenPhotoBlob(photo domain.Photo) (io.ReadCloser, error) {
	return s.blobs.Open(photo.Path)
}
