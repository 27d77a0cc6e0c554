package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "username, password, and role required")
		return
	}

	if req.Role != model.RoleAdmin && req.Role != model.RoleManager && req.Role != model.RoleUser {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, string(hash), req.Role)
	if err != nil {
		jsonError(w, http.StatusConflict, "username already exists")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user created", "user", claims.Username, "new_user", req.Username, "role", req.Role)
	jsonResponse(w, http.StatusCreated, user)
}
