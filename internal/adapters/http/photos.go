package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Mielola/api-photobooth/internal/application"
	"github.com/Mielola/api-photobooth/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleIngestOriginal(w http.ResponseWriter, r *http.Request) {
	h.ingestPhoto(w, r, domain.PhotoKindOriginal)
}

func (h *Handler) handleIngestFramed(w http.ResponseWriter, r *http.Request) {
	h.ingestPhoto(w, r, domain.PhotoKindFramed)
}

func (h *Handler) ingestPhoto(w http.ResponseWriter, r *http.Request, kind domain.PhotoKind) {
	image, closeUpload, err := readImageUpload(r, "photo")
	if err != nil {
		respondMapped(w, err)
		return
	}
	defer closeUpload()

	sessionUID := strings.TrimSpace(r.FormValue("session_uid"))
	if sessionUID == "" {
		respondValidation(w, map[string]string{"session_uid": "session uid is required"})
		return
	}
	frameUID := strings.TrimSpace(r.FormValue("frame_uid"))
	if kind == domain.PhotoKindFramed && frameUID == "" {
		respondValidation(w, map[string]string{"frame_uid": "frame uid is required for framed shots"})
		return
	}

	ingested, err := h.service.IngestPhoto(r.Context(), application.IngestPhotoInput{
		SessionUID: sessionUID,
		Kind:       kind,
		FrameUID:   frameUID,
		Image:      image,
	})
	if err != nil {
		respondMapped(w, err)
		return
	}

	data := map[string]any{"photo": h.renderPhoto(ingested.Photo)}
	if ingested.Frame != nil {
		data["frame"] = h.renderFrame(*ingested.Frame)
	}
	respond(w, http.StatusCreated, "photo stored", data)
}

func (h *Handler) handleRetakePhoto(w http.ResponseWriter, r *http.Request) {
	image, closeUpload, err := readImageUpload(r, "photo")
	if err != nil {
		respondMapped(w, err)
		return
	}
	defer closeUpload()

	var kind *domain.PhotoKind
	if v := r.FormValue("kind"); v != "" {
		k := domain.PhotoKind(v)
		if !k.Valid() {
			respondValidation(w, map[string]string{"kind": "must be original or framed"})
			return
		}
		kind = &k
	}

	photo, err := h.service.RetakePhoto(r.Context(), application.RetakePhotoInput{
		PhotoUID: uidParam(r),
		Kind:     kind,
		Image:    image,
	})
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "photo replaced", h.renderPhoto(photo))
}

func (h *Handler) handlePhotosBySession(w http.ResponseWriter, r *http.Request) {
	photos, err := h.service.PhotosBySession(r.Context(), uidParam(r), nil)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "photos retrieved", map[string]any{"photos": h.renderPhotos(photos)})
}

func (h *Handler) handlePhotosBySessionKind(w http.ResponseWriter, r *http.Request) {
	kind := domain.PhotoKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		respondValidation(w, map[string]string{"kind": "must be original or framed"})
		return
	}
	photos, err := h.service.PhotosBySession(r.Context(), uidParam(r), &kind)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "photos retrieved", map[string]any{"photos": h.renderPhotos(photos)})
}

func (h *Handler) handlePhotoDetail(w http.ResponseWriter, r *http.Request) {
	photo, err := h.service.GetPhoto(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "photo retrieved", h.renderPhoto(photo))
}

func (h *Handler) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePhoto(r.Context(), uidParam(r)); err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "photo deleted", nil)
}

func (h *Handler) handlePhotoDownload(w http.ResponseWriter, r *http.Request) {
	photo, filename, err := h.service.OpenPhoto(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	src, err := h.service.OpenPhotoBlob(photo)
	if err != nil {
		respondMapped(w, err)
		return
	}
	defer src.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, src); err != nil {
		h.log.Warn().Err(err).Str("photo_uid", photo.UID).Msg("photo stream interrupted")
	}
}
