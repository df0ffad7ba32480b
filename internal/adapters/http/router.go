package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Mielola/api-photobooth/internal/application"
	"github.com/Mielola/api-photobooth/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type contextKey string

const userKey contextKey = "user"

const maxUploadBytes = 32 << 20

type Handler struct {
	service *application.BoothService
	log     zerolog.Logger
}

func NewRouter(service *application.BoothService, storageRoot string, log zerolog.Logger) http.Handler {
	h := &Handler{service: service, log: log}
	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", h.handleLogin)
		api.With(h.requireAuth).Post("/auth/logout", h.handleLogout)

		api.Get("/events/active", h.handleActiveEvents)
		api.Get("/events/{uid}/reprint-last", h.handleReprintLastSession)
		api.With(h.requireAuth).Get("/events", h.handleEventIndex)
		api.With(h.requireAuth).Post("/events", h.handleCreateEvent)
		api.With(h.requireAuth).Get("/events/{uid}", h.handleEventDetail)
		api.With(h.requireAuth).Post("/events/{uid}", h.handleUpdateEvent)
		api.With(h.requireAuth).Post("/events/{uid}/status", h.handleSetEventStatus)
		api.With(h.requireAuth).Delete("/events/{uid}", h.handleDeleteEvent)
		api.With(h.requireAuth).Get("/events/{uid}/download-photos", h.handleEventArchive)
		api.With(h.requireAuth).Post("/events/{uid}/reset-session", h.handleResetSession)

		api.With(h.requireAuth).Post("/frames", h.handleCreateFrame)
		api.With(h.requireAuth).Get("/frames", h.handleFrameIndex)
		api.Get("/frames/{uid}", h.handleFrameDetail)
		api.With(h.requireAuth).Post("/frames/{uid}", h.handleUpdateFrame)
		api.With(h.requireAuth).Delete("/frames/{uid}", h.handleDeleteFrame)

		api.Post("/sessions", h.handleStartSession)
		api.With(h.requireAuth).Get("/sessions", h.handleSessionIndex)
		api.Get("/sessions/{uid}", h.handleSessionDetail)
		api.Get("/sessions/{uid}/check", h.handleCheckSession)
		api.Post("/sessions/{uid}/extend", h.handleExtendSession)
		api.Put("/sessions/{uid}/email", h.handleSetSessionEmail)
		api.With(h.requireAuth).Put("/sessions/{uid}", h.handleUpdateSession)
		api.With(h.requireAuth).Delete("/sessions/{uid}", h.handleDeleteSession)
		api.Get("/sessions/{uid}/download-all", h.handleSessionArchive)
		api.Get("/sessions/{uid}/reprint", h.handleReprintSession)

		api.Post("/photos/original", h.handleIngestOriginal)
		api.Post("/photos/framed", h.handleIngestFramed)
		api.Get("/photos/session/{uid}", h.handlePhotosBySession)
		api.Get("/photos/session/{uid}/{kind}", h.handlePhotosBySessionKind)
		api.Get("/photos/{uid}", h.handlePhotoDetail)
		api.Get("/photos/{uid}/download", h.handlePhotoDownload)
		api.Post("/photos/{uid}/retake", h.handleRetakePhoto)
		api.With(h.requireAuth).Delete("/photos/{uid}", h.handleDeletePhoto)
	})

	r.Handle("/storage/*", http.StripPrefix("/storage/", http.FileServer(http.Dir(storageRoot))))

	return r
}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.service.AuthenticateToken(r.Context(), bearerToken(r))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]any{"success": true, "message": message}
	if data != nil {
		payload["data"] = data
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]any{"success": false, "message": message}
	if err != nil {
		payload["error"] = err.Error()
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondValidation(w http.ResponseWriter, fieldErrors map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": "validation failed",
		"errors":  fieldErrors,
	})
}

// respondMapped translates domain sentinels to the right status code.
func respondMapped(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrFrameNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrPhotoNotFound),
		errors.Is(err, domain.ErrNoPhotos):
		respondError(w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, domain.ErrEventInactive),
		errors.Is(err, domain.ErrSessionExpired):
		respondError(w, http.StatusForbidden, err.Error(), err)
	case errors.Is(err, domain.ErrSessionAlreadyExpired):
		respondError(w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, domain.ErrEmailRequired):
		respondError(w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, domain.ErrInvalidEmail):
		respondValidation(w, map[string]string{"email": "must be a valid email address"})
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err.Error(), err)
	case errors.Is(err, domain.ErrInvalidImage):
		respondValidation(w, map[string]string{"image": err.Error()})
	default:
		respondError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	return json.NewDecoder(r.Body).Decode(dst)
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// readImageUpload pulls a multipart file field and sniffs its real content
// type from the first bytes. The returned closer must be called once the
// upload has been consumed.
func readImageUpload(r *http.Request, field string) (application.ImageUpload, func(), error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return application.ImageUpload{}, nil, fmt.Errorf("%w: multipart form expected", domain.ErrInvalidImage)
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		return application.ImageUpload{}, nil, fmt.Errorf("%w: missing file field %q", domain.ErrInvalidImage, field)
	}
	upload, err := sniffImage(file)
	if err != nil {
		_ = file.Close()
		return application.ImageUpload{}, nil, err
	}
	return upload, func() { _ = file.Close() }, nil
}

func sniffImage(file multipart.File) (application.ImageUpload, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return application.ImageUpload{}, err
	}
	head = head[:n]
	ext, ok := allowedImageTypes[http.DetectContentType(head)]
	if !ok {
		return application.ImageUpload{}, fmt.Errorf("%w: only jpeg, png, webp and gif are accepted", domain.ErrInvalidImage)
	}
	return application.ImageUpload{
		Reader: io.MultiReader(strings.NewReader(string(head)), file),
		Ext:    ext,
	}, nil
}

// sendArchive streams the finished zip and removes the temp file when
// done, on error paths too.
func (h *Handler) sendArchive(w http.ResponseWriter, archive application.Archive) {
	defer archive.Cleanup()

	f, err := os.Open(archive.Path)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "archive unavailable", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "archive unavailable", err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Name))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	if _, err := io.Copy(w, f); err != nil {
		h.log.Warn().Err(err).Str("archive", archive.Name).Msg("archive stream interrupted")
	}
}

func pagination(r *http.Request) domain.Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return domain.Pagination{Page: page, PerPage: perPage}
}

func uidParam(r *http.Request) string {
	return chi.URLParam(r, "uid")
}
