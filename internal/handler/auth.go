package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ymiyake/userboard/internal/domain"
	"github.com/ymiyake/userboard/internal/service"
)

// AuthHandler handles login, guest login, and logout.
type AuthHandler struct {
	auth         *service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

// HandleLogin processes a JSON login request.
// POST /api/v1/login
// Request:  {"user_name":"...","password":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"user_name"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "リクエストが不正です．")
		return
	}

	token, err := h.auth.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeMessage(w, http.StatusUnauthorized, "ユーザー名またはパスワードが違います．")
			return
		}
		slog.Error("login user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "予期しないエラーが発生しました．")
		return
	}

	h.respondLoggedIn(w, r, token)
}

// HandleGuestLogin signs into the shared guest account.
// POST /api/v1/guest_login
// Response: {"user": {...}}
func (h *AuthHandler) HandleGuestLogin(w http.ResponseWriter, r *http.Request) {
	token, err := h.auth.GuestLogin(r.Context())
	if err != nil {
		slog.Error("guest login", "error", err)
		writeMessage(w, http.StatusInternalServerError, "予期しないエラーが発生しました．")
		return
	}

	h.respondLoggedIn(w, r, token)
}

// HandleLogout clears the auth cookie.
// DELETE /api/v1/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) respondLoggedIn(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})

	userID, _ := h.auth.ValidateToken(token)
	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		slog.Error("get user after login", "error", err)
		writeMessage(w, http.StatusInternalServerError, "予期しないエラーが発生しました．")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}
