package services

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/ramonskie/tubearchivarr/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// AuthService handles admin authentication
type AuthService struct {
	cfg ConfigFunc
}

// NewAuthService creates a new AuthService
func NewAuthService(cfg ConfigFunc) *AuthService {
	return &AuthService{
		cfg: cfg,
	}
}

// AuthDisabled reports whether the API is open without a token
func (s *AuthService) AuthDisabled() bool {
	return s.cfg().Admin.DisableAuth
}

// Login checks the admin credentials and returns a JWT token. The configured
// password may be plain text or a bcrypt hash.
func (s *AuthService) Login(username, password string) (string, error) {
	admin := s.cfg().Admin
	if admin.Username == "" || username != admin.Username {
		return "", ErrInvalidCredentials
	}
	if !checkPassword(admin.Password, password) {
		return "", ErrInvalidCredentials
	}

	return utils.GenerateToken(username)
}

func checkPassword(stored, given string) bool {
	if stored == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// ValidateToken validates a JWT token
func (s *AuthService) ValidateToken(token string) (*utils.JWTClaims, error) {
	return utils.ValidateToken(token)
}
