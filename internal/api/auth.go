package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/auth"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, Role: user.Role})
}
