package http

import (
	"time"

	"github.com/Mielola/api-photobooth/internal/domain"
)

type eventJSON struct {
	UID         string       `json:"uid"`
	Name        string       `json:"name"`
	CoupleName  string       `json:"couple_name"`
	Date        string       `json:"date"`
	Status      string       `json:"status"`
	Background  string       `json:"background,omitempty"`
	LatestPhoto *photoJSON   `json:"latest_photo,omitempty"`
	Frames      []frameJSON  `json:"frames,omitempty"`
	Photos      []photoJSON  `json:"photos,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type frameJSON struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	PhotoCount int       `json:"photo_count"`
	Image      string    `json:"image"`
	CreatedAt  time.Time `json:"created_at"`
}

type sessionJSON struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type photoJSON struct {
	UID       string    `json:"uid"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) renderEvent(event domain.Event) eventJSON {
	return eventJSON{
		UID:        event.UID,
		Name:       event.Name,
		CoupleName: event.CoupleName,
		Date:       event.Date.Format("2006-01-02"),
		Status:     string(event.Status),
		Background: h.service.BlobURL(event.Background),
		CreatedAt:  event.CreatedAt,
		UpdatedAt:  event.UpdatedAt,
	}
}

func (h *Handler) renderFrame(frame domain.Frame) frameJSON {
	return frameJSON{
		UID:        frame.UID,
		Name:       frame.Name,
		PhotoCount: frame.PhotoCount,
		Image:      h.service.BlobURL(frame.ImagePath),
		CreatedAt:  frame.CreatedAt,
	}
}

func (h *Handler) renderFrames(frames []domain.Frame) []frameJSON {
	out := make([]frameJSON, 0, len(frames))
	for _, f := range frames {
		out = append(out, h.renderFrame(f))
	}
	return out
}

func renderSession(session domain.Session) sessionJSON {
	return sessionJSON{
		UID:       session.UID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	}
}

func renderSessions(sessions []domain.Session) []sessionJSON {
	out := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, renderSession(s))
	}
	return out
}

func (h *Handler) renderPhoto(photo domain.Photo) photoJSON {
	return photoJSON{
		UID:       photo.UID,
		Kind:      string(photo.Kind),
		URL:       h.service.BlobURL(photo.Path),
		CreatedAt: photo.CreatedAt,
	}
}

func (h *Handler) renderPhotos(photos []domain.Photo) []photoJSON {
	out := make([]photoJSON, 0, len(photos))
	for _, p := range photos {
		out = append(out, h.renderPhoto(p))
	}
	return out
}

type pageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}
