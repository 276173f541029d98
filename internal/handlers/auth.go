package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/payledger/apiserver/internal/auth"
	"github.com/payledger/apiserver/internal/services"
	"github.com/payledger/apiserver/internal/store"
	"github.com/payledger/apiserver/types"
)

// AuthHandler provides authentication endpoints.
type AuthHandler struct {
	userService *services.UserService
	issuer      *auth.TokenIssuer
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, issuer *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		issuer:      issuer,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, issuer *auth.TokenIssuer) {
	handler := NewAuthHandler(userService, issuer)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

type UserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// JwtResponse is the login payload: the token plus the identity it proves.
type JwtResponse struct {
	Token string     `json:"token"`
	Type  string     `json:"type"`
	Email string     `json:"email"`
	Role  types.Role `json:"role"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
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

	writeSuccess(w, http.StatusCreated, "User registered successfully", user)
}

// Login verifies credentials and returns a signed token carrying the user's
// email and role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	token, err := h.issuer.Issue(user.Email, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful", JwtResponse{
		Token: token,
		Type:  "Bearer",
		Email: user.Email,
		Role:  user.Role,
	})
}

func decodeUserRequest(r *http.Request) (UserRequest, error) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return UserRequest{}, errors.New("invalid request")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.TrimSpace(req.Role)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return UserRequest{}, errors.New("missing required fields")
	}
	if !types.Role(req.Role).Valid() {
		return UserRequest{}, errors.New("invalid role")
	}
	return req, nil
}
