package services

import (
	"testing"
	"time"

	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Login(t *testing.T) {
	utils.InitJWT("test-secret-that-is-long-enough-for-hs256", time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		stored   string
		username string
		password string
		wantErr  bool
	}{
		{"plain text match", "hunter2", "admin", "hunter2", false},
		{"plain text mismatch", "hunter2", "admin", "hunter3", true},
		{"bcrypt match", string(hash), "admin", "hunter2", false},
		{"bcrypt mismatch", string(hash), "admin", "nope", true},
		{"wrong user", "hunter2", "root", "hunter2", true},
		{"empty stored password", "", "admin", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(testConfig(func(c *config.Config) {
				c.Admin.Username = "admin"
				c.Admin.Password = tt.stored
			}))

			token, err := svc.Login(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				return
			}
			require.NoError(t, err)

			claims, err := svc.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, "admin", claims.Username)
		})
	}
}

func TestAuthService_AuthDisabled(t *testing.T) {
	svc := NewAuthService(testConfig(func(c *config.Config) { c.Admin.DisableAuth = true }))
	assert.True(t, svc.AuthDisabled())
}
