package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type eventResult struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	CoupleName string    `json:"couple_name"`
	Date       string    `json:"date"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type eventsListResult struct {
	Events []eventResult `json:"events"`
	Total  int64         `json:"total"`
}

type sessionResult struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionsListResult struct {
	Sessions []sessionResult `json:"sessions"`
	Total    int64           `json:"total"`
}

type sessionCheckResult struct {
	Session          sessionResult `json:"session"`
	Active           bool          `json:"is_active"`
	RemainingMinutes int           `json:"remaining_minutes"`
	RemainingSeconds int           `json:"remaining_seconds"`
}

type photoResult struct {
	UID       string    `json:"uid"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type photosListResult struct {
	Photos []photoResult `json:"photos"`
}

func doLogin(ctx context.Context, cfg cliConfig, email, password, tokenName string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket, cfg.dialTimeout())
		return client.call(ctx, "auth.login", map[string]any{
			"email":      email,
			"password":   password,
			"token_name": tokenName,
		}, out)
	}
	client := newAPIClient(cfg.Server, "")
	return client.request(ctx, http.MethodPost, "/api/auth/login", map[string]any{
		"email":       email,
		"password":    password,
		"device_name": tokenName,
	}, out)
}

func doEventsList(ctx context.Context, cfg cliConfig, search string, page, perPage int, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket, cfg.dialTimeout())
		return client.call(ctx, "events.list", map[string]any{
			"token":    cfg.Token,
			"search":   search,
			"page":     page,
			"per_page": perPage,
		}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	path := fmt.Sprintf("/api/events?page=%d&per_page=%d", page, perPage)
	if search != "" {
		path += "&search=" + url.QueryEscape(search)
	}
	return client.request(ctx, http.MethodGet, path, nil, out)
}

func doEventsSetStatus(ctx context.Context, cfg cliConfig, uid, status string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket, cfg.dialTimeout())
		return client.call(ctx, "events.set-status", map[string]any{
			"token":  cfg.Token,
			"uid":    uid,
			"status": status,
		}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/events/"+uid+"/status", map[string]any{"status": status}, out)
}

func doEventsResetSession(ctx context.Context, cfg cliConfig, uid string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket, cfg.dialTimeout())
		return client.call(ctx, "events.reset-session", map[string]any{"token": cfg.Token, "uid": uid}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/events/"+uid+"/reset-session", map[string]any{}, out)
}

func doSessionsList(ctx context.Context, cfg cliConfig, page, perPage int, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket, cfg.dialTimeout())
		return client.call(ctx, "sessions.list", map[string]any{
			"token":    cfg.Token,
			"page":     page,
			"per_page": perPage,
		}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, fmt.Sprintf("/api/sessions?page=%d&per_page=%d", page, perPage), nil, out)
}

func doSessionsCheck(ctx context.Context, cfg cliConfig, uid string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket, cfg.dialTimeout())
		return client.call(ctx, "sessions.check", map[string]any{"token": cfg.Token, "uid": uid}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/sessions/"+uid+"/check", nil, out)
}

func doPhotosList(ctx context.Context, cfg cliConfig, sessionUID, kind string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket, cfg.dialTimeout())
		return client.call(ctx, "photos.list", map[string]any{
			"token":       cfg.Token,
			"session_uid": sessionUID,
			"kind":        kind,
		}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	path := "/api/photos/session/" + sessionUID
	if kind != "" {
		path += "/" + kind
	}
	return client.request(ctx, http.MethodGet, path, nil, out)
}
