package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/payledger/apiserver/internal/auth"
	"github.com/payledger/apiserver/internal/services"
	"github.com/payledger/apiserver/internal/store"
	"github.com/payledger/apiserver/types"
)

// UserHandler provides admin user-management endpoints.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler constructs a UserHandler with the provided service.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, gate *auth.Gate) {
	handler := NewUserHandler(userService)

	r.With(requireOperation(gate, auth.OpUserCreate)).Post("/", handler.CreateUser)
	r.With(requireOperation(gate, auth.OpUserList)).Get("/", handler.ListUsers)
}

// CreateUser creates a user on behalf of an admin. It shares the register
// path; only the guarding policy differs.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUserRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password, types.Role(req.Role))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeSuccess(w, http.StatusCreated, "User created successfully", user)
}

// ListUsers lists all users. Password hashes are never serialized.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeSuccess(w, http.StatusOK, "Users retrieved successfully", users)
}
