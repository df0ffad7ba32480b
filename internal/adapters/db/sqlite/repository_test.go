package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mielola/api-photobooth/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "photobooth_test.db")

	db, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewRepository(db)
}

func TestEventCRUDAndSearch(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateEvent(ctx, domain.Event{
		Name:       "Summer Wedding",
		CoupleName: "Anna & Ben",
		Date:       time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
		Status:     domain.EventStatusInactive,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if created.UID == "" {
		t.Fatalf("expected generated uid")
	}
	_, err = repo.CreateEvent(ctx, domain.Event{
		Name:       "Corporate Party",
		CoupleName: "Acme GmbH",
		Date:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Status:     domain.EventStatusActive,
	})
	if err != nil {
		t.Fatalf("create second event: %v", err)
	}

	byUID, err := repo.GetEventByUID(ctx, created.UID)
	if err != nil {
		t.Fatalf("get by uid: %v", err)
	}
	if byUID.CoupleName != "Anna & Ben" {
		t.Fatalf("unexpected couple name: %s", byUID.CoupleName)
	}

	results, total, err := repo.ListEvents(ctx, domain.EventFilter{Search: "wedding"}, domain.Pagination{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if total != 1 || len(results) != 1 {
		t.Fatalf("expected one wedding match, got total=%d len=%d", total, len(results))
	}

	active, err := repo.ListActiveEvents(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Corporate Party" {
		t.Fatalf("expected only the active event, got %+v", active)
	}

	byUID.Status = domain.EventStatusActive
	updated, err := repo.UpdateEvent(ctx, byUID)
	if err != nil {
		t.Fatalf("update event: %v", err)
	}
	if updated.Status != domain.EventStatusActive {
		t.Fatalf("status not persisted")
	}

	if _, err := repo.GetEventByUID(ctx, "no-such-uid"); err != domain.ErrEventNotFound {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	event, err := repo.CreateEvent(ctx, domain.Event{Name: "Gala", CoupleName: "C & D", Date: time.Now(), Status: domain.EventStatusActive})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	frame, err := repo.CreateFrame(ctx, domain.Frame{Name: "Strip", PhotoCount: 4, ImagePath: "events/gala/frames/f.png", EventID: event.ID})
	if err != nil {
		t.Fatalf("create frame: %v", err)
	}
	session, err := repo.CreateSession(ctx, domain.Session{EventID: event.ID, ExpiresAt: time.Now().Add(10 * time.Minute)})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	photo, err := repo.CreatePhoto(ctx, domain.Photo{Kind: domain.PhotoKindOriginal, Path: "events/gala/photos/p.jpg", SessionID: session.ID})
	if err != nil {
		t.Fatalf("create photo: %v", err)
	}

	if err := repo.DeleteEvent(ctx, event.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}

	if _, err := repo.GetFrameByUID(ctx, frame.UID); err != domain.ErrFrameNotFound {
		t.Fatalf("frame should be gone, got %v", err)
	}
	if _, err := repo.GetSessionByUID(ctx, session.UID); err != domain.ErrSessionNotFound {
		t.Fatalf("session should be gone, got %v", err)
	}
	if _, err := repo.GetPhotoByUID(ctx, photo.UID); err != domain.ErrPhotoNotFound {
		t.Fatalf("photo should be gone, got %v", err)
	}
}

func TestLatestSessionAndPhotoQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	event, err := repo.CreateEvent(ctx, domain.Event{Name: "Prom", CoupleName: "School", Date: time.Now(), Status: domain.EventStatusActive})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	first, err := repo.CreateSession(ctx, domain.Session{EventID: event.ID, ExpiresAt: time.Now().Add(10 * time.Minute)})
	if err != nil {
		t.Fatalf("create first session: %v", err)
	}
	second, err := repo.CreateSession(ctx, domain.Session{EventID: event.ID, ExpiresAt: time.Now().Add(10 * time.Minute)})
	if err != nil {
		t.Fatalf("create second session: %v", err)
	}

	latest, err := repo.LatestSessionByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("latest session: %v", err)
	}
	if latest.UID != second.UID {
		t.Fatalf("expected latest session %s, got %s", second.UID, latest.UID)
	}

	_, err = repo.CreatePhoto(ctx, domain.Photo{Kind: domain.PhotoKindOriginal, Path: "a.jpg", SessionID: first.ID})
	if err != nil {
		t.Fatalf("create photo: %v", err)
	}
	newest, err := repo.CreatePhoto(ctx, domain.Photo{Kind: domain.PhotoKindFramed, Path: "b.jpg", SessionID: second.ID})
	if err != nil {
		t.Fatalf("create newest photo: %v", err)
	}

	latestPhotos, err := repo.LatestPhotoPerEvent(ctx, []uint{event.ID})
	if err != nil {
		t.Fatalf("latest photo per event: %v", err)
	}
	got, ok := latestPhotos[event.ID]
	if !ok || got.UID != newest.UID {
		t.Fatalf("expected newest photo %s, got %+v", newest.UID, got)
	}

	framed := domain.PhotoKindFramed
	photos, err := repo.ListPhotosBySession(ctx, second.ID, &framed)
	if err != nil {
		t.Fatalf("list photos by kind: %v", err)
	}
	if len(photos) != 1 || photos[0].Kind != domain.PhotoKindFramed {
		t.Fatalf("expected one framed photo, got %+v", photos)
	}
}

func TestAPITokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	user, err := repo.CreateUser(ctx, domain.User{Email: "op@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := repo.CreateAPIToken(ctx, domain.APIToken{UserID: user.ID, Name: "cli", TokenHash: "abc"}); err != nil {
		t.Fatalf("create token: %v", err)
	}

	token, err := repo.GetAPITokenByHash(ctx, "abc")
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token.UserID != user.ID {
		t.Fatalf("token bound to wrong user")
	}

	if err := repo.DeleteAPITokenByHash(ctx, "abc"); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if _, err := repo.GetAPITokenByHash(ctx, "abc"); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized after delete, got %v", err)
	}
}
