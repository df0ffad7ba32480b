package http

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mielola/api-photobooth/internal/adapters/blob"
	"github.com/Mielola/api-photobooth/internal/adapters/db/sqlite"
	"github.com/Mielola/api-photobooth/internal/application"
	"github.com/rs/zerolog"
)

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("fake jpeg body")...)

func newTestServer(t *testing.T) (*httptest.Server, *application.BoothService) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := sqlite.Open(ctx, filepath.Join(dir, "photobooth_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	blobs, err := blob.NewDiskStore(filepath.Join(dir, "storage"), "http://booth.local")
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}

	service := application.NewBoothService(sqlite.NewRepository(db), blobs, application.SystemClock(), zerolog.Nop(), application.Config{
		ScratchDir: filepath.Join(dir, "tmp"),
	})
	if err := service.BootstrapAdmin(ctx, "admin@booth.local", "secret"); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	srv := httptest.NewServer(NewRouter(service, blobs.Root(), zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, service
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func doMultipart(t *testing.T, url, token, fileField string, fields map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "upload.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(jpegBytes)
	}
	_ = mw.Close()

	req, err := http.NewRequest(http.MethodPost, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func dataField(t *testing.T, body map[string]any, path ...string) any {
	t.Helper()
	var cur any = body["data"]
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("expected object at %v in %v", key, body)
		}
		cur = m[key]
	}
	return cur
}

func TestGuestFlowFromLoginToDownload(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
		"email":    "admin@booth.local",
		"password": "secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %v", resp.StatusCode, body)
	}
	token, _ := dataField(t, body, "token").(string)
	if token == "" {
		t.Fatalf("no token in login response")
	}

	resp, body = doMultipart(t, srv.URL+"/api/events", token, "background", map[string]string{
		"name":        "Summer Wedding",
		"couple_name": "Anna & Ben",
		"date":        "2026-07-04",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event: %d %v", resp.StatusCode, body)
	}
	eventUID, _ := dataField(t, body, "uid").(string)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/events/"+eventUID+"/status", token, map[string]any{"status": "active"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate event: %d %v", resp.StatusCode, body)
	}

	resp, body = doMultipart(t, srv.URL+"/api/frames", token, "image", map[string]string{
		"name":        "Strip",
		"photo_count": "4",
		"event_uid":   eventUID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create frame: %d %v", resp.StatusCode, body)
	}
	frameUID, _ := dataField(t, body, "uid").(string)
	if frameUID == "" {
		t.Fatalf("no frame uid")
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/sessions", "", map[string]any{"event_uid": eventUID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start session: %d %v", resp.StatusCode, body)
	}
	sessionUID, _ := dataField(t, body, "session", "uid").(string)
	if sessionUID == "" {
		t.Fatalf("no session uid")
	}

	resp, body = doMultipart(t, srv.URL+"/api/photos/framed", "", "photo", map[string]string{
		"session_uid": sessionUID,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("framed upload without a frame must 422, got %d %v", resp.StatusCode, body)
	}
	resp, body = doMultipart(t, srv.URL+"/api/photos/framed", "", "photo", map[string]string{
		"session_uid": sessionUID,
		"frame_uid":   "missing-frame",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("framed upload with an unknown frame must 404, got %d %v", resp.StatusCode, body)
	}

	resp, body = doMultipart(t, srv.URL+"/api/photos/framed", "", "photo", map[string]string{
		"session_uid": sessionUID,
		"frame_uid":   frameUID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ingest photo: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/sessions/"+sessionUID+"/download-all", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("download without email must 400, got %d %v", resp.StatusCode, body)
	}

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/sessions/"+sessionUID+"/email", bytes.NewReader([]byte(`{"email":"guest@example.com"}`)))
	req.Header.Set("Content-Type", "application/json")
	emailResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("set email: %v", err)
	}
	emailResp.Body.Close()
	if emailResp.StatusCode != http.StatusOK {
		t.Fatalf("set email: %d", emailResp.StatusCode)
	}

	zipResp, err := http.Get(srv.URL + "/api/sessions/" + sessionUID + "/download-all")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer zipResp.Body.Close()
	if zipResp.StatusCode != http.StatusOK {
		t.Fatalf("download: %d", zipResp.StatusCode)
	}
	if ct := zipResp.Header.Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("unexpected content type %q", ct)
	}

	raw, err := io.ReadAll(zipResp.Body)
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("parse zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "foto_1.jpg" {
		names := make([]string, 0, len(zr.File))
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		t.Fatalf("unexpected zip entries %v", names)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/events", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/events", "bogus-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/events/active", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("kiosk route must stay open, got %d", resp.StatusCode)
	}
}

func TestUploadRejectsNonImages(t *testing.T) {
	srv, service := newTestServer(t)
	ctx := context.Background()

	event, err := service.CreateEvent(ctx, application.CreateEventInput{
		Name:       "Gala",
		CoupleName: "C & D",
		Date:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if _, err := service.SetEventStatus(ctx, event.UID, "active"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	bundle, err := service.StartSession(ctx, event.UID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("session_uid", bundle.Session.UID)
	fw, _ := mw.CreateFormFile("photo", "nasty.html")
	_, _ = fw.Write([]byte("<html><script>alert(1)</script></html>"))
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/photos/original", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 422 for non-image upload, got %d: %s", resp.StatusCode, payload)
	}
}
