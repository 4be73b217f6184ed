package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/ramonskie/tubearchivarr/internal/services"
	"github.com/ramonskie/tubearchivarr/internal/utils"
	"github.com/rs/zerolog/log"
)

// AuthHandler issues bridge API tokens for the configured admin account
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for the task, event and status
// endpoints. With auth disabled no token is issued.
type LoginResponse struct {
	Token        string     `json:"token,omitempty"`
	Username     string     `json:"username,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	AuthDisabled bool       `json:"auth_disabled,omitempty"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.authService.AuthDisabled() {
		writeJSON(w, http.StatusOK, LoginResponse{AuthDisabled: true})
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		log.Warn().Str("username", req.Username).Str("remote", r.RemoteAddr).Msg("Rejected bridge API login")
		writeError(w, http.StatusUnauthorized, "Credentials do not match the admin account in the bridge config")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue API token")
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	resp := LoginResponse{Token: token, Username: req.Username}
	if claims, err := utils.ValidateToken(token); err == nil && claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		resp.ExpiresAt = &expires
	}

	log.Info().Str("username", req.Username).Msg("Issued bridge API token")
	writeJSON(w, http.StatusOK, resp)
}
