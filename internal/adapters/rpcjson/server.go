package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mielola/api-photobooth/internal/application"
	"github.com/Mielola/api-photobooth/internal/domain"
)

// Server speaks JSON-RPC 2.0 over a unix socket. It carries the operator
// surface for the CLI so the booth can be managed from the host without
// going through the HTTP port.
type Server struct {
	service  *application.BoothService
	listener net.Listener
	path     string
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func Start(path string, service *application.BoothService) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{service: service, listener: ln, path: path}
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32600, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "auth.login":
		return s.handleAuthLogin(ctx, req)
	case "events.list":
		return s.handleEventsList(ctx, req)
	case "events.set-status":
		return s.handleEventsSetStatus(ctx, req)
	case "events.reset-session":
		return s.handleEventsResetSession(ctx, req)
	case "sessions.list":
		return s.handleSessionsList(ctx, req)
	case "sessions.check":
		return s.handleSessionsCheck(ctx, req)
	case "photos.list":
		return s.handlePhotosList(ctx, req)
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32601, Message: "method not found"}, ID: req.ID}
	}
}

func (s *Server) handleAuthLogin(ctx context.Context, req request) response {
	var p struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		TokenName string `json:"token_name"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	user, token, err := s.service.Login(ctx, p.Email, p.Password, p.TokenName)
	if err != nil {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40100, Message: "invalid credentials"}, ID: req.ID}
	}
	return response{JSONRPC: "2.0", Result: map[string]any{"email": user.Email, "token": token}, ID: req.ID}
}

func (s *Server) authz(ctx context.Context, req request) (response, bool) {
	var p struct {
		Token string `json:"token"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID), false
	}
	if _, err := s.service.AuthenticateToken(ctx, p.Token); err != nil {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40100, Message: "unauthorized"}, ID: req.ID}, false
	}
	return response{}, true
}

func (s *Server) handleEventsList(ctx context.Context, req request) response {
	if resp, ok := s.authz(ctx, req); !ok {
		return resp
	}
	var p struct {
		Token   string `json:"token"`
		Search  string `json:"search"`
		Page    int    `json:"page"`
		PerPage int    `json:"per_page"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	events, total, _, err := s.service.EventIndex(ctx, p.Search, domain.Pagination{Page: p.Page, PerPage: p.PerPage})
	if err != nil {
		return internalError(req.ID, err)
	}
	items := make([]map[string]any, 0, len(events))
	for _, e := range events {
		items = append(items, renderEvent(e))
	}
	return response{JSONRPC: "2.0", Result: map[string]any{"events": items, "total": total}, ID: req.ID}
}

func (s *Server) handleEventsSetStatus(ctx context.Context, req request) response {
	if resp, ok := s.authz(ctx, req); !ok {
		return resp
	}
	var p struct {
		Token  string `json:"token"`
		UID    string `json:"uid"`
		Status string `json:"status"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	event, err := s.service.SetEventStatus(ctx, p.UID, domain.EventStatus(p.Status))
	if err != nil {
		return appError(req.ID, err)
	}
	return response{JSONRPC: "2.0", Result: renderEvent(event), ID: req.ID}
}

func (s *Server) handleEventsResetSession(ctx context.Context, req request) response {
	if resp, ok := s.authz(ctx, req); !ok {
		return resp
	}
	var p struct {
		Token string `json:"token"`
		UID   string `json:"uid"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	session, err := s.service.ForceExpireLatest(ctx, p.UID)
	if err != nil {
		return appError(req.ID, err)
	}
	return response{JSONRPC: "2.0", Result: renderSession(session), ID: req.ID}
}

func (s *Server) handleSessionsList(ctx context.Context, req request) response {
	if resp, ok := s.authz(ctx, req); !ok {
		return resp
	}
	var p struct {
		Token   string `json:"token"`
		Page    int    `json:"page"`
		PerPage int    `json:"per_page"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	sessions, total, err := s.service.ListSessions(ctx, domain.Pagination{Page: p.Page, PerPage: p.PerPage})
	if err != nil {
		return internalError(req.ID, err)
	}
	items := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, renderSession(sess))
	}
	return response{JSONRPC: "2.0", Result: map[string]any{"sessions": items, "total": total}, ID: req.ID}
}

func (s *Server) handleSessionsCheck(ctx context.Context, req request) response {
	if resp, ok := s.authz(ctx, req); !ok {
		return resp
	}
	var p struct {
		Token string `json:"token"`
		UID   string `json:"uid"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	status, err := s.service.CheckSession(ctx, p.UID)
	if err != nil {
		return appError(req.ID, err)
	}
	return response{JSONRPC: "2.0", Result: map[string]any{
		"session":           renderSession(status.Session),
		"is_active":         status.Active,
		"remaining_minutes": status.RemainingMinutes,
		"remaining_seconds": status.RemainingSeconds,
	}, ID: req.ID}
}

func (s *Server) handlePhotosList(ctx context.Context, req request) response {
	if resp, ok := s.authz(ctx, req); !ok {
		return resp
	}
	var p struct {
		Token      string `json:"token"`
		SessionUID string `json:"session_uid"`
		Kind       string `json:"kind"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	var kind *domain.PhotoKind
	if p.Kind != "" {
		k := domain.PhotoKind(p.Kind)
		kind = &k
	}
	photos, err := s.service.PhotosBySession(ctx, p.SessionUID, kind)
	if err != nil {
		return appError(req.ID, err)
	}
	items := make([]map[string]any, 0, len(photos))
	for _, photo := range photos {
		items = append(items, s.renderPhoto(photo))
	}
	return response{JSONRPC: "2.0", Result: map[string]any{"photos": items}, ID: req.ID}
}

func renderEvent(event domain.Event) map[string]any {
	return map[string]any{
		"uid":         event.UID,
		"name":        event.Name,
		"couple_name": event.CoupleName,
		"date":        event.Date.Format("2006-01-02"),
		"status":      string(event.Status),
		"created_at":  event.CreatedAt,
	}
}

func renderSession(session domain.Session) map[string]any {
	return map[string]any{
		"uid":        session.UID,
		"email":      session.Email,
		"expires_at": session.ExpiresAt,
		"created_at": session.CreatedAt,
	}
}

func (s *Server) renderPhoto(photo domain.Photo) map[string]any {
	return map[string]any{
		"uid":        photo.UID,
		"kind":       string(photo.Kind),
		"url":        s.service.BlobURL(photo.Path),
		"created_at": photo.CreatedAt,
	}
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: -32602, Message: "invalid params"}, ID: id}
}

func appError(id any, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 40000, Message: err.Error()}, ID: id}
}

func internalError(id any, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 50000, Message: fmt.Sprintf("internal error: %v", err)}, ID: id}
}
