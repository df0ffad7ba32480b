package application

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Mielola/api-photobooth/internal/domain"
	"github.com/go-playground/validator/v10"
)

// forceExpireAt is the sentinel written when an operator resets a booth
// session: far enough in the past to read as expired everywhere.
var forceExpireAt = time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC)

var validate = validator.New()

// SessionBundle is what the kiosk needs to start shooting: the session
// itself plus the event and its frame catalogue.
type SessionBundle struct {
	Session domain.Session
	Event   domain.Event
	Frames  []domain.Frame
}

// SessionActive reports whether the session still accepts photos at the
// given instant. The boundary is strict: at expiry the session is over.
func SessionActive(session domain.Session, now time.Time) bool {
	return now.Before(session.ExpiresAt)
}

// SessionRemaining returns the whole minutes left, never negative.
func SessionRemaining(session domain.Session, now time.Time) int {
	left := session.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Minute)
}

// SessionRemainingSeconds is the countdown the kiosk renders.
func SessionRemainingSeconds(session domain.Session, now time.Time) int {
	left := session.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// StartSession opens a time-boxed session on an active event. Inactive and
// maintenance events refuse new sessions.
func (s *BoothService) StartSession(ctx context.Context, eventUID string) (SessionBundle, error) {
	event, err := s.store.GetEventByUID(ctx, eventUID)
	if err != nil {
		return SessionBundle{}, err
	}
	if event.Status != domain.EventStatusActive {
		return SessionBundle{}, domain.ErrEventInactive
	}

	session, err := s.store.CreateSession(ctx, domain.Session{
		EventID:   event.ID,
		ExpiresAt: s.clock.Now().Add(s.cfg.SessionDuration),
	})
	if err != nil {
		return SessionBundle{}, err
	}

	if err := s.blobs.EnsureDir(SessionFolder(event, session)); err != nil {
		s.log.Warn().Err(err).Str("session_uid", session.UID).Msg("session folder not pre-created")
	}

	frames, err := s.store.ListFramesByEvent(ctx, event.ID)
	if err != nil {
		return SessionBundle{}, err
	}
	s.log.Info().Str("event_uid", event.UID).Str("session_uid", session.UID).Time("expires_at", session.ExpiresAt).Msg("session started")
	return SessionBundle{Session: session, Event: event, Frames: frames}, nil
}

type SessionStatus struct {
	Session          domain.Session
	Active           bool
	RemainingMinutes int
	RemainingSeconds int
}

func (s *BoothService) CheckSession(ctx context.Context, uid string) (SessionStatus, error) {
	session, err := s.store.GetSessionByUID(ctx, uid)
	if err != nil {
		return SessionStatus{}, err
	}
	now := s.clock.Now()
	return SessionStatus{
		Session:          session,
		Active:           SessionActive(session, now),
		RemainingMinutes: SessionRemaining(session, now),
		RemainingSeconds: SessionRemainingSeconds(session, now),
	}, nil
}

func (s *BoothService) SessionDetail(ctx context.Context, uid string) (SessionBundle, []domain.Photo, error) {
	session, err := s.store.GetSessionByUID(ctx, uid)
	if err != nil {
		return SessionBundle{}, nil, err
	}
	event, err := s.store.GetEventByID(ctx, session.EventID)
	if err != nil {
		return SessionBundle{}, nil, err
	}
	frames, err := s.store.ListFramesByEvent(ctx, event.ID)
	if err != nil {
		return SessionBundle{}, nil, err
	}
	photos, err := s.store.ListPhotosBySession(ctx, session.ID, nil)
	if err != nil {
		return SessionBundle{}, nil, err
	}
	return SessionBundle{Session: session, Event: event, Frames: frames}, photos, nil
}

// ExtendSession pushes the expiry out by the given duration from now.
// Expired sessions can only be revived when the server is configured
// to allow it.
func (s *BoothService) ExtendSession(ctx context.Context, uid string, by time.Duration) (domain.Session, error) {
	session, err := s.store.GetSessionByUID(ctx, uid)
	if err != nil {
		return domain.Session{}, err
	}
	now := s.clock.Now()
	if !SessionActive(session, now) && !s.cfg.AllowReviveExpiredSession {
		return domain.Session{}, domain.ErrSessionExpired
	}
	if by <= 0 {
		by = s.cfg.SessionDuration
	}
	session.ExpiresAt = now.Add(by)
	return s.store.UpdateSession(ctx, session)
}

// SetSessionEmail records the guest's delivery address. This is the gate
// the download endpoints check before handing out an archive.
func (s *BoothService) SetSessionEmail(ctx context.Context, uid, email string) (domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.Session{}, domain.ErrInvalidEmail
	}
	session, err := s.store.GetSessionByUID(ctx, uid)
	if err != nil {
		return domain.Session{}, err
	}
	if !SessionActive(session, s.clock.Now()) && !s.cfg.AllowReviveExpiredSession {
		return domain.Session{}, domain.ErrSessionExpired
	}
	session.Email = email
	return s.store.UpdateSession(ctx, session)
}

// ForceExpireLatest ends the newest session of an event by rewriting its
// expiry to the sentinel. Resetting an already-expired session is refused
// so the operator notices a double tap.
func (s *BoothService) ForceExpireLatest(ctx context.Context, eventUID string) (domain.Session, error) {
	event, err := s.store.GetEventByUID(ctx, eventUID)
	if err != nil {
		return domain.Session{}, err
	}
	session, err := s.store.LatestSessionByEvent(ctx, event.ID)
	if err != nil {
		return domain.Session{}, err
	}
	if !SessionActive(session, s.clock.Now()) {
		return domain.Session{}, domain.ErrSessionAlreadyExpired
	}
	session.ExpiresAt = forceExpireAt
	updated, err := s.store.UpdateSession(ctx, session)
	if err != nil {
		return domain.Session{}, err
	}
	s.log.Info().Str("event_uid", event.UID).Str("session_uid", session.UID).Msg("session force-expired")
	return updated, nil
}

type UpdateSessionInput struct {
	Email     *string
	ExpiresAt *time.Time
}

// UpdateSessionAdmin is the operator-side edit: no liveness gate.
func (s *BoothService) UpdateSessionAdmin(ctx context.Context, uid string, in UpdateSessionInput) (domain.Session, error) {
	session, err := s.store.GetSessionByUID(ctx, uid)
	if err != nil {
		return domain.Session{}, err
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" {
			if err := validate.Var(email, "email"); err != nil {
				return domain.Session{}, domain.ErrInvalidEmail
			}
		}
		session.Email = email
	}
	if in.ExpiresAt != nil {
		session.ExpiresAt = *in.ExpiresAt
	}
	return s.store.UpdateSession(ctx, session)
}

func (s *BoothService) ListSessions(ctx context.Context, page domain.Pagination) ([]domain.Session, int64, error) {
	if page.PerPage <= 0 {
		page.PerPage = 10
	}
	if page.PerPage > 100 {
		page.PerPage = 100
	}
	if page.Page < 1 {
		page.Page = 1
	}
	return s.store.ListSessions(ctx, page)
}

func (s *BoothService) SessionsByEvent(ctx context.Context, eventUID string) ([]domain.Session, error) {
	event, err := s.store.GetEventByUID(ctx, eventUID)
	if err != nil {
		return nil, err
	}
	return s.store.ListSessionsByEvent(ctx, event.ID)
}

// DeleteSession removes the session's photo blobs and folders before
// the rows go, so nothing is orphaned on disk. Blobs are located by
// their stored paths, not by recomputing the folder name: a couple-name
// change after the shoot leaves old photos under the old slug.
func (s *BoothService) DeleteSession(ctx context.Context, uid string) error {
	session, err := s.store.GetSessionByUID(ctx, uid)
	if err != nil {
		return err
	}
	event, err := s.store.GetEventByID(ctx, session.EventID)
	if err != nil {
		return err
	}
	photos, err := s.store.ListPhotosBySession(ctx, session.ID, nil)
	if err != nil {
		return err
	}

	folders := map[string]struct{}{SessionFolder(event, session): {}}
	for _, photo := range photos {
		if err := s.blobs.Delete(photo.Path); err != nil {
			return fmt.Errorf("remove photo blob: %w", err)
		}
		folders[path.Dir(photo.Path)] = struct{}{}
	}
	for folder := range folders {
		if err := s.blobs.DeleteTree(folder); err != nil {
			return err
		}
	}
	return s.store.DeleteSession(ctx, session.ID)
}
