package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ramonskie/tubearchivarr/internal/services"
	"github.com/ramonskie/tubearchivarr/internal/utils"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	userContextKey contextKey = "user"
)

// Auth returns a middleware that validates JWT bearer tokens.
// When admin.disable_auth is set, requests pass through unchecked.
func Auth(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authService.AuthDisabled() {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Missing authorization header")
				return
			}

			// Extract token from "Bearer <token>"
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := authService.ValidateToken(token)
			if err != nil {
				log.Debug().Err(err).Msg("Invalid token")
				unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}

// GetUserFromContext retrieves the user claims from the request context
func GetUserFromContext(ctx context.Context) *utils.JWTClaims {
	if claims, ok := ctx.Value(userContextKey).(*utils.JWTClaims); ok {
		return claims
	}
	return nil
}
