package http

import "net/http"

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Device   string `json:"device_name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload", err)
		return
	}

	user, token, err := h.service.Login(r.Context(), in.Email, in.Password, in.Device)
	if err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "login successful", map[string]any{
		"email": user.Email,
		"token": token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), bearerToken(r)); err != nil {
		respondMapped(w, err)
		return
	}
	respond(w, http.StatusOK, "logged out", nil)
}
