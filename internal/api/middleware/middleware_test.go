package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/services"
	"github.com/ramonskie/tubearchivarr/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(disabled bool) *services.AuthService {
	cfg := config.DefaultConfig()
	cfg.Admin = config.AdminConfig{Username: "admin", Password: "secret", DisableAuth: disabled}
	return services.NewAuthService(func() *config.Config { return cfg })
}

func TestAuth(t *testing.T) {
	utils.InitJWT("middleware-test-secret-at-least-32-chars", time.Hour)

	var seenUser string
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := GetUserFromContext(r.Context()); claims != nil {
			seenUser = claims.Username
		}
		w.WriteHeader(http.StatusNoContent)
	})

	token, err := utils.GenerateToken("admin")
	require.NoError(t, err)

	tests := []struct {
		name     string
		disabled bool
		header   string
		want     int
		wantUser string
	}{
		{"missing header", false, "", http.StatusUnauthorized, ""},
		{"wrong scheme", false, "Basic " + token, http.StatusUnauthorized, ""},
		{"garbage token", false, "Bearer not-a-jwt", http.StatusUnauthorized, ""},
		{"valid token", false, "Bearer " + token, http.StatusNoContent, "admin"},
		{"auth disabled", true, "", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUser = ""
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Auth(newAuthService(tt.disabled))(protected).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.wantUser, seenUser)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestLogger_PassesThrough(t *testing.T) {
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
