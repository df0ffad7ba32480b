package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mielola/api-photobooth/internal/domain"
)

func TestStartSessionRequiresActiveEvent(t *testing.T) {
	ctx := context.Background()
	service, _, _, _ := newTestService(t, Config{})

	event, err := service.CreateEvent(ctx, CreateEventInput{
		Name:       "Winter Gala",
		CoupleName: "Eva & Finn",
		Date:       time.Date(2026, 12, 12, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	if _, err := service.StartSession(ctx, event.UID); err != domain.ErrEventInactive {
		t.Fatalf("expected ErrEventInactive on inactive event, got %v", err)
	}
	if _, err := service.StartSession(ctx, "missing-uid"); err != domain.ErrEventNotFound {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}

	if _, err := service.SetEventStatus(ctx, event.UID, domain.EventStatusMaintenance); err != nil {
		t.Fatalf("set maintenance: %v", err)
	}
	if _, err := service.StartSession(ctx, event.UID); err != domain.ErrEventInactive {
		t.Fatalf("maintenance must refuse sessions, got %v", err)
	}
}

func TestSessionCountdownAndStrictExpiry(t *testing.T) {
	ctx := context.Background()
	service, clock, _, _ := newTestService(t, Config{})
	event := activeEvent(t, service)

	bundle, err := service.StartSession(ctx, event.UID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if !bundle.Session.ExpiresAt.Equal(clock.Now().Add(10 * time.Minute)) {
		t.Fatalf("expected 10 minute box, got %v", bundle.Session.ExpiresAt)
	}

	status, err := service.CheckSession(ctx, bundle.Session.UID)
	if err != nil {
		t.Fatalf("check session: %v", err)
	}
	if !status.Active || status.RemainingMinutes != 10 {
		t.Fatalf("fresh session should have 10 minutes, got %+v", status)
	}

	clock.Advance(9*time.Minute + 30*time.Second)
	status, _ = service.CheckSession(ctx, bundle.Session.UID)
	if !status.Active || status.RemainingMinutes != 0 || status.RemainingSeconds != 30 {
		t.Fatalf("expected 30s left, got %+v", status)
	}

	clock.Advance(30 * time.Second)
	status, _ = service.CheckSession(ctx, bundle.Session.UID)
	if status.Active {
		t.Fatalf("session must be over exactly at expiry")
	}
	if status.RemainingMinutes != 0 || status.RemainingSeconds != 0 {
		t.Fatalf("remaining must clamp at zero, got %+v", status)
	}
}

func TestExtendAndEmailGateOnExpiredSession(t *testing.T) {
	ctx := context.Background()
	service, clock, _, _ := newTestService(t, Config{})
	event := activeEvent(t, service)

	bundle, err := service.StartSession(ctx, event.UID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	uid := bundle.Session.UID

	extended, err := service.ExtendSession(ctx, uid, 0)
	if err != nil {
		t.Fatalf("extend live session: %v", err)
	}
	if !extended.ExpiresAt.Equal(clock.Now().Add(10 * time.Minute)) {
		t.Fatalf("extend should rebase from now, got %v", extended.ExpiresAt)
	}

	clock.Advance(11 * time.Minute)
	if _, err := service.ExtendSession(ctx, uid, 0); err != domain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := service.SetSessionEmail(ctx, uid, "guest@example.com"); err != domain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired on email after expiry, got %v", err)
	}
}

func TestExpiredSessionRevivalWhenAllowed(t *testing.T) {
	ctx := context.Background()
	service, clock, _, _ := newTestService(t, Config{AllowReviveExpiredSession: true})
	event := activeEvent(t, service)

	bundle, err := service.StartSession(ctx, event.UID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	clock.Advance(time.Hour)

	if _, err := service.ExtendSession(ctx, bundle.Session.UID, 5*time.Minute); err != nil {
		t.Fatalf("revival should be allowed: %v", err)
	}
	session, err := service.SetSessionEmail(ctx, bundle.Session.UID, "guest@example.com")
	if err != nil {
		t.Fatalf("set email on revived session: %v", err)
	}
	if session.Email != "guest@example.com" {
		t.Fatalf("email not persisted: %q", session.Email)
	}
}

func TestSetSessionEmailValidation(t *testing.T) {
	ctx := context.Background()
	service, _, _, _ := newTestService(t, Config{})
	event := activeEvent(t, service)

	bundle, err := service.StartSession(ctx, event.UID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	if _, err := service.SetSessionEmail(ctx, bundle.Session.UID, "not-an-email"); err != domain.ErrInvalidEmail {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := service.SetSessionEmail(ctx, bundle.Session.UID, ""); err != domain.ErrInvalidEmail {
		t.Fatalf("expected ErrInvalidEmail for empty input, got %v", err)
	}

	session, err := service.SetSessionEmail(ctx, bundle.Session.UID, "  Guest@Example.COM ")
	if err != nil {
		t.Fatalf("set email: %v", err)
	}
	if session.Email != "guest@example.com" {
		t.Fatalf("email should be normalized, got %q", session.Email)
	}
}

func TestForceExpireLatestSession(t *testing.T) {
	ctx := context.Background()
	service, clock, _, _ := newTestService(t, Config{})
	event := activeEvent(t, service)

	if _, err := service.ForceExpireLatest(ctx, event.UID); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound without sessions, got %v", err)
	}

	bundle, err := service.StartSession(ctx, event.UID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	session, err := service.ForceExpireLatest(ctx, event.UID)
	if err != nil {
		t.Fatalf("force expire: %v", err)
	}
	if session.UID != bundle.Session.UID {
		t.Fatalf("wrong session expired")
	}
	if !session.ExpiresAt.Equal(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected sentinel expiry, got %v", session.ExpiresAt)
	}
	if SessionActive(session, clock.Now()) {
		t.Fatalf("session must read as expired")
	}

	if _, err := service.ForceExpireLatest(ctx, event.UID); err != domain.ErrSessionAlreadyExpired {
		t.Fatalf("double reset must conflict, got %v", err)
	}
}

func TestDeleteSessionAfterCoupleRename(t *testing.T) {
	ctx := context.Background()
	service, _, _, blobs := newTestService(t, Config{})
	event := activeEvent(t, service)

	bundle, err := service.StartSession(ctx, event.UID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	ingested, err := service.IngestPhoto(ctx, IngestPhotoInput{
		SessionUID: bundle.Session.UID,
		Kind:       domain.PhotoKindOriginal,
		Image:      uploadJPEG("shot"),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	oldFolder := SessionFolder(event, bundle.Session)

	newCouple := "Carla & Dan"
	if _, err := service.UpdateEvent(ctx, event.UID, UpdateEventInput{CoupleName: &newCouple}); err != nil {
		t.Fatalf("rename couple: %v", err)
	}

	if err := service.DeleteSession(ctx, bundle.Session.UID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if blobs.Exists(ingested.Photo.Path) {
		t.Fatalf("photo blob orphaned under the old couple slug: %s", ingested.Photo.Path)
	}
	if _, err := os.Stat(filepath.Join(blobs.Root(), filepath.FromSlash(oldFolder))); !os.IsNotExist(err) {
		t.Fatalf("old session folder should be removed, stat err=%v", err)
	}
	if _, err := service.CheckSession(ctx, bundle.Session.UID); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
