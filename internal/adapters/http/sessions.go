package http

import (
	"net/http"
	"time"

	"github.com/Mielola/api-photobooth/internal/application"
)

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		EventUID string `json:"event_uid"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload", err)
		return
	}
	if in.EventUID == "" {
		respondValidation(w, map[string]string{"event_uid": "event uid is required"})
		return
	}

	bundle, err := h.service.StartSession(r.Context(), in.EventUID)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusCreated, "session started", map[string]any{
		"session": renderSession(bundle.Session),
		"event":   h.renderEvent(bundle.Event),
		"frames":  h.renderFrames(bundle.Frames),
	})
}

func (h *Handler) handleSessionIndex(w http.ResponseWriter, r *http.Request) {
	page := pagination(r)
	sessions, total, err := h.service.ListSessions(r.Context(), page)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "sessions retrieved", map[string]any{
		"sessions": renderSessions(sessions),
		"meta":     pageMeta{Page: page.Page, PerPage: page.PerPage, Total: total},
	})
}

func (h *Handler) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	bundle, photos, err := h.service.SessionDetail(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "session retrieved", map[string]any{
		"session": renderSession(bundle.Session),
		"event":   h.renderEvent(bundle.Event),
		"frames":  h.renderFrames(bundle.Frames),
		"photos":  h.renderPhotos(photos),
	})
}

func (h *Handler) handleCheckSession(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.CheckSession(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "session checked", map[string]any{
		"session":           renderSession(status.Session),
		"is_active":         status.Active,
		"remaining_minutes": status.RemainingMinutes,
		"remaining_seconds": status.RemainingSeconds,
	})
}

func (h *Handler) handleExtendSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Minutes int `json:"minutes"`
	}
	_ = decodeJSON(r, &in)

	session, err := h.service.ExtendSession(r.Context(), uidParam(r), time.Duration(in.Minutes)*time.Minute)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "session extended", renderSession(session))
}

func (h *Handler) handleSetSessionEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload", err)
		return
	}

	session, err := h.service.SetSessionEmail(r.Context(), uidParam(r), in.Email)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "email saved", renderSession(session))
}

func (h *Handler) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email     *string    `json:"email"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload", err)
		return
	}

	session, err := h.service.UpdateSessionAdmin(r.Context(), uidParam(r), application.UpdateSessionInput{
		Email:     in.Email,
		ExpiresAt: in.ExpiresAt,
	})
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "session updated", renderSession(session))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(r.Context(), uidParam(r)); err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "session deleted", nil)
}

func (h *Handler) handleSessionArchive(w http.ResponseWriter, r *http.Request) {
	archive, err := h.service.SessionArchive(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	h.sendArchive(w, archive)
}

func (h *Handler) handleReprintSession(w http.ResponseWriter, r *http.Request) {
	archive, err := h.service.ReprintSession(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	h.sendArchive(w, archive)
}
