package application

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Mielola/api-photobooth/internal/domain"
	"github.com/rs/zerolog"
)

const DefaultSessionDuration = 10 * time.Minute

type Config struct {
	SessionDuration           time.Duration
	AllowReviveExpiredSession bool
	ScratchDir                string
}

type BoothService struct {
	store domain.Store
	blobs domain.BlobStore
	clock domain.Clock
	log   zerolog.Logger
	cfg   Config
}

func NewBoothService(store domain.Store, blobs domain.BlobStore, clock domain.Clock, log zerolog.Logger, cfg Config) *BoothService {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = DefaultSessionDuration
	}
	if strings.TrimSpace(cfg.ScratchDir) == "" {
		cfg.ScratchDir = "tmp"
	}
	return &BoothService{store: store, blobs: blobs, clock: clock, log: log, cfg: cfg}
}

// ImageUpload is a decoded multipart file: the boundary layer has already
// sniffed the content type and mapped it to a file extension.
type ImageUpload struct {
	Reader io.Reader
	Ext    string
}

type CreateEventInput struct {
	Name       string
	CoupleName string
	Date       time.Time
	Background *ImageUpload
}

type UpdateEventInput struct {
	Name       *string
	CoupleName *string
	Date       *time.Time
	Status     *domain.EventStatus
	Background *ImageUpload
}

type EventDetail struct {
	Event  domain.Event
	Frames []domain.Frame
	Photos []domain.Photo
}

// CreateEvent persists the row first (the uid is needed for the folder name),
// then allocates the storage tree and the background blob. A failure on the
// storage side compensates by removing both the row and whatever part of the
// tree was created.
func (s *BoothService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	event, err := s.store.CreateEvent(ctx, domain.Event{
		Name:       strings.TrimSpace(in.Name),
		CoupleName: strings.TrimSpace(in.CoupleName),
		Date:       in.Date,
		Status:     domain.EventStatusInactive,
	})
	if err != nil {
		return domain.Event{}, err
	}

	if err := s.allocateEventTree(ctx, event, in.Background); err != nil {
		_ = s.blobs.DeleteTree(EventFolder(event))
		if delErr := s.store.DeleteEvent(ctx, event.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("event_uid", event.UID).Msg("compensating event delete failed")
		}
		return domain.Event{}, err
	}

	return s.store.GetEventByID(ctx, event.ID)
}

func (s *BoothService) allocateEventTree(ctx context.Context, event domain.Event, background *ImageUpload) error {
	base := EventFolder(event)
	for _, dir := range []string{base, FrameFolder(event), PhotosFolder(event)} {
		if err := s.blobs.EnsureDir(dir); err != nil {
			return fmt.Errorf("allocate event folder %s: %w", dir, err)
		}
	}
	if background == nil {
		return nil
	}

	path := BackgroundFolder(event) + "/" + BackgroundFilename(s.clock.Now(), background.Ext)
	stored, err := s.blobs.Write(path, background.Reader)
	if err != nil {
		return fmt.Errorf("store background: %w", err)
	}
	event.Background = stored
	if _, err := s.store.UpdateEvent(ctx, event); err != nil {
		_ = s.blobs.Delete(stored)
		return err
	}
	return nil
}

func (s *BoothService) EventIndex(ctx context.Context, search string, page domain.Pagination) ([]domain.Event, int64, map[uint]domain.Photo, error) {
	if page.PerPage <= 0 {
		page.PerPage = 10
	}
	if page.PerPage > 100 {
		page.PerPage = 100
	}
	if page.Page < 1 {
		page.Page = 1
	}

	events, total, err := s.store.ListEvents(ctx, domain.EventFilter{Search: search}, page)
	if err != nil {
		return nil, 0, nil, err
	}

	ids := make([]uint, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	latest, err := s.store.LatestPhotoPerEvent(ctx, ids)
	if err != nil {
		return nil, 0, nil, err
	}
	return events, total, latest, nil
}

func (s *BoothService) ActiveEvents(ctx context.Context) ([]domain.Event, error) {
	return s.store.ListActiveEvents(ctx)
}

func (s *BoothService) EventDetail(ctx context.Context, uid string) (EventDetail, error) {
	event, err := s.store.GetEventByUID(ctx, uid)
	if err != nil {
		return EventDetail{}, err
	}
	frames, err := s.store.ListFramesByEvent(ctx, event.ID)
	if err != nil {
		return EventDetail{}, err
	}
	photos, err := s.store.ListPhotosByEvent(ctx, event.ID)
	if err != nil {
		return EventDetail{}, err
	}
	return EventDetail{Event: event, Frames: frames, Photos: photos}, nil
}

func (s *BoothService) GetEvent(ctx context.Context, uid string) (domain.Event, error) {
	return s.store.GetEventByUID(ctx, uid)
}

// UpdateEvent swaps the background blob in place (old blob removed once the
// new one is written) and, when a name change moves the event's folder slug,
// relocates the whole storage tree so the canonical layout keeps holding.
func (s *BoothService) UpdateEvent(ctx context.Context, uid string, in UpdateEventInput) (domain.Event, error) {
	event, err := s.store.GetEventByUID(ctx, uid)
	if err != nil {
		return domain.Event{}, err
	}

	oldFolder := EventFolder(event)
	oldBackground := event.Background

	if in.Name != nil {
		event.Name = strings.TrimSpace(*in.Name)
	}
	if in.CoupleName != nil {
		event.CoupleName = strings.TrimSpace(*in.CoupleName)
	}
	if in.Date != nil {
		event.Date = *in.Date
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return domain.Event{}, fmt.Errorf("unknown event status %q", *in.Status)
		}
		event.Status = *in.Status
	}

	newFolder := EventFolder(event)
	if newFolder != oldFolder {
		if err := s.relocateEventStorage(ctx, event, oldFolder, newFolder); err != nil {
			return domain.Event{}, err
		}
		event.Background = strings.Replace(event.Background, oldFolder, newFolder, 1)
		oldBackground = strings.Replace(oldBackground, oldFolder, newFolder, 1)
	}

	if in.Background != nil {
		path := BackgroundFolder(event) + "/" + BackgroundFilename(s.clock.Now(), in.Background.Ext)
		stored, err := s.blobs.Write(path, in.Background.Reader)
		if err != nil {
			return domain.Event{}, fmt.Errorf("store background: %w", err)
		}
		event.Background = stored
	}

	updated, err := s.store.UpdateEvent(ctx, event)
	if err != nil {
		if in.Background != nil {
			_ = s.blobs.Delete(event.Background)
		}
		return domain.Event{}, err
	}

	if in.Background != nil && oldBackground != "" && oldBackground != updated.Background {
		_ = s.blobs.Delete(oldBackground)
	}
	return updated, nil
}

// relocateEventStorage copies every blob under the old folder to the new one,
// rewrites the stored paths of dependent rows, then drops the old tree.
func (s *BoothService) relocateEventStorage(ctx context.Context, event domain.Event, oldFolder, newFolder string) error {
	files, err := s.blobs.ListFiles(oldFolder)
	if err != nil {
		return err
	}
	for _, file := range files {
		src, err := s.blobs.Open(file)
		if err != nil {
			return err
		}
		dst := strings.Replace(file, oldFolder, newFolder, 1)
		_, err = s.blobs.Write(dst, src)
		_ = src.Close()
		if err != nil {
			return err
		}
	}

	frames, err := s.store.ListFramesByEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	for _, frame := range frames {
		frame.ImagePath = strings.Replace(frame.ImagePath, oldFolder, newFolder, 1)
		if _, err := s.store.UpdateFrame(ctx, frame); err != nil {
			return err
		}
	}

	photos, err := s.store.ListPhotosByEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	for _, photo := range photos {
		photo.Path = strings.Replace(photo.Path, oldFolder, newFolder, 1)
		if _, err := s.store.UpdatePhoto(ctx, photo); err != nil {
			return err
		}
	}

	if err := s.blobs.DeleteTree(oldFolder); err != nil {
		s.log.Warn().Err(err).Str("folder", oldFolder).Msg("old event folder left behind after relocation")
	}
	s.log.Info().Str("event_uid", event.UID).Str("from", oldFolder).Str("to", newFolder).Msg("event storage relocated")
	return nil
}

func (s *BoothService) SetEventStatus(ctx context.Context, uid string, status domain.EventStatus) (domain.Event, error) {
	if !status.Valid() {
		return domain.Event{}, fmt.Errorf("unknown event status %q", status)
	}
	event, err := s.store.GetEventByUID(ctx, uid)
	if err != nil {
		return domain.Event{}, err
	}
	event.Status = status
	return s.store.UpdateEvent(ctx, event)
}

// DeleteEvent removes the whole storage subtree first (idempotent when the
// folder is already gone), then lets the store cascade the dependent rows.
func (s *BoothService) DeleteEvent(ctx context.Context, uid string) error {
	event, err := s.store.GetEventByUID(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.blobs.DeleteTree(EventFolder(event)); err != nil {
		return fmt.Errorf("remove event folder: %w", err)
	}
	if err := s.store.DeleteEvent(ctx, event.ID); err != nil {
		return err
	}
	s.log.Info().Str("event_uid", event.UID).Msg("event deleted with storage subtree")
	return nil
}

type CreateFrameInput struct {
	Name       string
	PhotoCount int
	EventUID   string
	Image      ImageUpload
}

type UpdateFrameInput struct {
	Name       *string
	PhotoCount *int
	Image      *ImageUpload
}

func (s *BoothService) CreateFrame(ctx context.Context, in CreateFrameInput) (domain.Frame, error) {
	event, err := s.store.GetEventByUID(ctx, in.EventUID)
	if err != nil {
		return domain.Frame{}, err
	}

	path := FrameFolder(event) + "/" + FrameFilename(s.clock.Now(), in.Image.Ext)
	stored, err := s.blobs.Write(path, in.Image.Reader)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("store frame image: %w", err)
	}

	frame, err := s.store.CreateFrame(ctx, domain.Frame{
		Name:       strings.TrimSpace(in.Name),
		PhotoCount: in.PhotoCount,
		ImagePath:  stored,
		EventID:    event.ID,
	})
	if err != nil {
		_ = s.blobs.Delete(stored)
		return domain.Frame{}, err
	}
	return frame, nil
}

func (s *BoothService) GetFrame(ctx context.Context, uid string) (domain.Frame, error) {
	return s.store.GetFrameByUID(ctx, uid)
}

func (s *BoothService) ListFrames(ctx context.Context, page domain.Pagination) ([]domain.Frame, int64, error) {
	if page.PerPage <= 0 {
		page.PerPage = 10
	}
	if page.PerPage > 100 {
		page.PerPage = 100
	}
	if page.Page < 1 {
		page.Page = 1
	}
	return s.store.ListFrames(ctx, page)
}

func (s *BoothService) UpdateFrame(ctx context.Context, uid string, in UpdateFrameInput) (domain.Frame, error) {
	frame, err := s.store.GetFrameByUID(ctx, uid)
	if err != nil {
		return domain.Frame{}, err
	}

	if in.Name != nil {
		frame.Name = strings.TrimSpace(*in.Name)
	}
	if in.PhotoCount != nil {
		frame.PhotoCount = *in.PhotoCount
	}
	if in.Image != nil {
		event, err := s.store.GetEventByID(ctx, frame.EventID)
		if err != nil {
			return domain.Frame{}, err
		}
		if err := s.blobs.Delete(frame.ImagePath); err != nil {
			return domain.Frame{}, fmt.Errorf("remove old frame image: %w", err)
		}
		path := FrameFolder(event) + "/" + FrameFilename(s.clock.Now(), in.Image.Ext)
		stored, err := s.blobs.Write(path, in.Image.Reader)
		if err != nil {
			return domain.Frame{}, fmt.Errorf("store frame image: %w", err)
		}
		frame.ImagePath = stored
	}

	return s.store.UpdateFrame(ctx, frame)
}

func (s *BoothService) DeleteFrame(ctx context.Context, uid string) error {
	frame, err := s.store.GetFrameByUID(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(frame.ImagePath); err != nil {
		return fmt.Errorf("remove frame image: %w", err)
	}
	return s.store.DeleteFrame(ctx, frame.ID)
}

func (s *BoothService) BlobURL(path string) string {
	if path == "" {
		return ""
	}
	return s.blobs.PublicURL(path)
}
