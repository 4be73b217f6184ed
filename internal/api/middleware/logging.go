package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/ramonskie/tubearchivarr/internal/utils"
)

// pollingPaths are hit by dashboards and health checks; they log at debug
var pollingPaths = map[string]bool{
	"/health":     true,
	"/metrics":    true,
	"/api/status": true,
	"/api/tasks":  true,
}

// Logger is a middleware that logs HTTP requests
// Logs are written to web.log and tagged with component="web"
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logger := utils.GetWebLogger()

			logEvent := logger.Info()
			if pollingPaths[r.URL.Path] {
				logEvent = logger.Debug()
			}

			logEvent.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration_ms", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Msg("HTTP request")
		}()

		next.ServeHTTP(ww, r)
	})
}
