package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/services"
	"github.com/ramonskie/tubearchivarr/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthHandler(t *testing.T, mutate ...func(*config.Config)) *AuthHandler {
	t.Helper()

	utils.InitJWT("test-secret-key-for-testing-min-32-chars", 24*time.Hour)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Admin = config.AdminConfig{
		Username: "admin",
		Password: string(hashedPassword),
	}
	for _, m := range mutate {
		m(cfg)
	}

	return NewAuthHandler(services.NewAuthService(func() *config.Config { return cfg }))
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{"valid credentials", LoginRequest{Username: "admin", Password: "testpassword"}, http.StatusOK},
		{"invalid password", LoginRequest{Username: "admin", Password: "wrongpassword"}, http.StatusUnauthorized},
		{"invalid username", LoginRequest{Username: "wronguser", Password: "testpassword"}, http.StatusUnauthorized},
		{"empty password", LoginRequest{Username: "admin"}, http.StatusBadRequest},
		{"empty body", LoginRequest{}, http.StatusBadRequest},
		{"invalid JSON", `{"username": "admin"`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := setupAuthHandler(t)

			var body []byte
			if str, ok := tt.body.(string); ok {
				body = []byte(str)
			} else {
				var err error
				body, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Login(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tt.expectedStatus == http.StatusOK {
				var resp LoginResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				claims, err := utils.ValidateToken(resp.Token)
				require.NoError(t, err)
				assert.Equal(t, "admin", claims.Username)
				assert.Equal(t, "admin", resp.Username)
				require.NotNil(t, resp.ExpiresAt)
				assert.WithinDuration(t, time.Now().Add(24*time.Hour), *resp.ExpiresAt, time.Minute)
				assert.False(t, resp.AuthDisabled)
				return
			}

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestAuthHandler_Login_AuthDisabled(t *testing.T) {
	handler := setupAuthHandler(t, func(c *config.Config) { c.Admin.DisableAuth = true })

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp LoginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.AuthDisabled)
	assert.Empty(t, resp.Token)
	assert.Nil(t, resp.ExpiresAt)
}
