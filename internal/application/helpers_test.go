package application

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Mielola/api-photobooth/internal/adapters/blob"
	"github.com/Mielola/api-photobooth/internal/adapters/db/sqlite"
	"github.com/Mielola/api-photobooth/internal/domain"
	"github.com/rs/zerolog"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T, cfg Config) (*BoothService, *fakeClock, domain.Store, *blob.DiskStore) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := sqlite.Open(ctx, filepath.Join(dir, "photobooth_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store := sqlite.NewRepository(db)

	blobs, err := blob.NewDiskStore(filepath.Join(dir, "storage"), "http://booth.local")
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}

	clock := &fakeClock{now: time.Date(2026, 6, 20, 14, 0, 0, 0, time.UTC)}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(dir, "tmp")
	}
	service := NewBoothService(store, blobs, clock, zerolog.Nop(), cfg)
	return service, clock, store, blobs
}

func activeEvent(t *testing.T, service *BoothService) domain.Event {
	t.Helper()
	ctx := context.Background()
	event, err := service.CreateEvent(ctx, CreateEventInput{
		Name:       "Summer Wedding",
		CoupleName: "Anna & Ben",
		Date:       time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	event, err = service.SetEventStatus(ctx, event.UID, domain.EventStatusActive)
	if err != nil {
		t.Fatalf("activate event: %v", err)
	}
	return event
}

func eventFrame(t *testing.T, service *BoothService, eventUID string) domain.Frame {
	t.Helper()
	frame, err := service.CreateFrame(context.Background(), CreateFrameInput{
		Name:       "Strip",
		PhotoCount: 4,
		EventUID:   eventUID,
		Image:      uploadJPEG("frame-art"),
	})
	if err != nil {
		t.Fatalf("create frame: %v", err)
	}
	return frame
}

func uploadJPEG(payload string) ImageUpload {
	return ImageUpload{Reader: strings.NewReader(payload), Ext: ".jpg"}
}
