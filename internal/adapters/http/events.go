package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Mielola/api-photobooth/internal/application"
	"github.com/Mielola/api-photobooth/internal/domain"
)

const dateLayout = "2006-01-02"

// readOptionalImage is readImageUpload for fields that may be absent.
func readOptionalImage(r *http.Request, field string) (*application.ImageUpload, func(), error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, func() {}, nil
	}
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	upload, err := sniffImage(file)
	if err != nil {
		_ = file.Close()
		return nil, func() {}, err
	}
	return &upload, func() { _ = file.Close() }, nil
}

func (h *Handler) handleEventIndex(w http.ResponseWriter, r *http.Request) {
	page := pagination(r)
	events, total, latest, err := h.service.EventIndex(r.Context(), r.URL.Query().Get("search"), page)
	if err != nil {
		respondMapped(w, err)
		return
	}

	items := make([]eventJSON, 0, len(events))
	for _, event := range events {
		item := h.renderEvent(event)
		if photo, ok := latest[event.ID]; ok {
			p := h.renderPhoto(photo)
			item.LatestPhoto = &p
		}
		items = append(items, item)
	}
	respond(w, http.StatusOK, "events retrieved", map[string]any{
		"events": items,
		"meta":   pageMeta{Page: page.Page, PerPage: page.PerPage, Total: total},
	})
}

func (h *Handler) handleActiveEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ActiveEvents(r.Context())
	if err != nil {
		respondMapped(w, err)
		return
	}
	items := make([]eventJSON, 0, len(events))
	for _, event := range events {
		items = append(items, h.renderEvent(event))
	}
	respond(w, http.StatusOK, "active events retrieved", map[string]any{"events": items})
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	background, closeUpload, err := readOptionalImage(r, "background")
	if err != nil {
		respondMapped(w, err)
		return
	}
	defer closeUpload()

	name := strings.TrimSpace(r.FormValue("name"))
	couple := strings.TrimSpace(r.FormValue("couple_name"))
	fieldErrors := map[string]string{}
	if name == "" {
		fieldErrors["name"] = "name is required"
	}
	if couple == "" {
		fieldErrors["couple_name"] = "couple name is required"
	}
	date, err := time.Parse(dateLayout, r.FormValue("date"))
	if err != nil {
		fieldErrors["date"] = "date must be YYYY-MM-DD"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	event, err := h.service.CreateEvent(r.Context(), application.CreateEventInput{
		Name:       name,
		CoupleName: couple,
		Date:       date,
		Background: background,
	})
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusCreated, "event created", h.renderEvent(event))
}

func (h *Handler) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.EventDetail(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	item := h.renderEvent(detail.Event)
	item.Frames = h.renderFrames(detail.Frames)
	item.Photos = h.renderPhotos(detail.Photos)
	respond(w, http.StatusOK, "event retrieved", item)
}

func (h *Handler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	background, closeUpload, err := readOptionalImage(r, "background")
	if err != nil {
		respondMapped(w, err)
		return
	}
	defer closeUpload()

	var in application.UpdateEventInput
	in.Background = background
	if v := strings.TrimSpace(r.FormValue("name")); v != "" {
		in.Name = &v
	}
	if v := strings.TrimSpace(r.FormValue("couple_name")); v != "" {
		in.CoupleName = &v
	}
	if v := r.FormValue("date"); v != "" {
		date, err := time.Parse(dateLayout, v)
		if err != nil {
			respondValidation(w, map[string]string{"date": "date must be YYYY-MM-DD"})
			return
		}
		in.Date = &date
	}
	if v := r.FormValue("status"); v != "" {
		status := domain.EventStatus(v)
		if !status.Valid() {
			respondValidation(w, map[string]string{"status": "must be active, maintenance or inactive"})
			return
		}
		in.Status = &status
	}

	event, err := h.service.UpdateEvent(r.Context(), uidParam(r), in)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "event updated", h.renderEvent(event))
}

func (h *Handler) handleSetEventStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload", err)
		return
	}
	status := domain.EventStatus(in.Status)
	if !status.Valid() {
		respondValidation(w, map[string]string{"status": "must be active, maintenance or inactive"})
		return
	}

	event, err := h.service.SetEventStatus(r.Context(), uidParam(r), status)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "event status updated", h.renderEvent(event))
}

func (h *Handler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEvent(r.Context(), uidParam(r)); err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "event deleted", nil)
}

func (h *Handler) handleEventArchive(w http.ResponseWriter, r *http.Request) {
	archive, err := h.service.EventArchive(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	h.sendArchive(w, archive)
}

func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.ForceExpireLatest(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "session reset", renderSession(session))
}

func (h *Handler) handleReprintLastSession(w http.ResponseWriter, r *http.Request) {
	archive, err := h.service.ReprintLastSession(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	h.sendArchive(w, archive)
}

func (h *Handler) handleCreateFrame(w http.ResponseWriter, r *http.Request) {
	image, closeUpload, err := readImageUpload(r, "image")
	if err != nil {
		respondMapped(w, err)
		return
	}
	defer closeUpload()

	fieldErrors := map[string]string{}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		fieldErrors["name"] = "name is required"
	}
	count, err := strconv.Atoi(r.FormValue("photo_count"))
	if err != nil || count < 1 || count > 10 {
		fieldErrors["photo_count"] = "photo count must be between 1 and 10"
	}
	eventUID := strings.TrimSpace(r.FormValue("event_uid"))
	if eventUID == "" {
		fieldErrors["event_uid"] = "event uid is required"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	frame, err := h.service.CreateFrame(r.Context(), application.CreateFrameInput{
		Name:       name,
		PhotoCount: count,
		EventUID:   eventUID,
		Image:      image,
	})
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusCreated, "frame created", h.renderFrame(frame))
}

func (h *Handler) handleFrameIndex(w http.ResponseWriter, r *http.Request) {
	page := pagination(r)
	frames, total, err := h.service.ListFrames(r.Context(), page)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "frames retrieved", map[string]any{
		"frames": h.renderFrames(frames),
		"meta":   pageMeta{Page: page.Page, PerPage: page.PerPage, Total: total},
	})
}

func (h *Handler) handleFrameDetail(w http.ResponseWriter, r *http.Request) {
	frame, err := h.service.GetFrame(r.Context(), uidParam(r))
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "frame retrieved", h.renderFrame(frame))
}

func (h *Handler) handleUpdateFrame(w http.ResponseWriter, r *http.Request) {
	image, closeUpload, err := readOptionalImage(r, "image")
	if err != nil {
		respondMapped(w, err)
		return
	}
	defer closeUpload()

	var in application.UpdateFrameInput
	in.Image = image
	if v := strings.TrimSpace(r.FormValue("name")); v != "" {
		in.Name = &v
	}
	if v := r.FormValue("photo_count"); v != "" {
		count, err := strconv.Atoi(v)
		if err != nil || count < 1 || count > 10 {
			respondValidation(w, map[string]string{"photo_count": "photo count must be between 1 and 10"})
			return
		}
		in.PhotoCount = &count
	}

	frame, err := h.service.UpdateFrame(r.Context(), uidParam(r), in)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "frame updated", h.renderFrame(frame))
}

func (h *Handler) handleDeleteFrame(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFrame(r.Context(), uidParam(r)); err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "frame deleted", nil)
}
