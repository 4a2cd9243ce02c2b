package handler

import (
	"net/http"

	"github.com/ymiyake/userboard/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
// Account registration (POST users) and login are public; everything
// else under /api/v1 requires a valid auth cookie.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, users *service.UserService, cookieSecure bool) {
	authHandler := NewAuthHandler(auth, cookieSecure)
	userHandler := NewUserHandler(users)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /api/v1/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/v1/guest_login", authHandler.HandleGuestLogin)
	mux.HandleFunc("DELETE /api/v1/logout", authHandler.HandleLogout)

	mux.HandleFunc("POST /api/v1/admin/users", userHandler.HandleCreate)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(auth, h)
	}
	mux.Handle("GET /api/v1/admin/users", requireAuth(userHandler.HandleList))
	mux.Handle("GET /api/v1/admin/users/{id}", requireAuth(userHandler.HandleGet))
	mux.Handle("PUT /api/v1/admin/users/{id}", requireAuth(userHandler.HandleUpdate))
	mux.Handle("DELETE /api/v1/admin/users/{id}", requireAuth(userHandler.HandleDelete))
	mux.Handle("GET /api/v1/admin/users/{id}/avatar", requireAuth(userHandler.HandleAvatar))
}
