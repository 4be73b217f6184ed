package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ramonskie/tubearchivarr/internal/api/handlers"
	mw "github.com/ramonskie/tubearchivarr/internal/api/middleware"
	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/services"
	"github.com/ramonskie/tubearchivarr/internal/storage"
)

// EventQueue accepts live events and reports its backlog
type EventQueue interface {
	clients.EventSink
	handlers.QueueSource
}

// RouterDependencies holds dependencies for the router
type RouterDependencies struct {
	Version     string
	AuthService *services.AuthService
	Tasks       handlers.TaskRunner
	JobsFile    *storage.JobsFile
	Events      EventQueue
	Archive     handlers.ArchiveStatus
	Membership  handlers.CollectionSource
	Metadata    handlers.MetadataProvider
	EventSource handlers.ConnectionSource // nil when the websocket feed is off
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps *RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.Version, deps.Archive)
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	tasksHandler := handlers.NewTasksHandler(deps.Tasks)
	jobsHandler := handlers.NewJobsHandler(deps.JobsFile)
	eventsHandler := handlers.NewEventsHandler(deps.Events)
	statusHandler := handlers.NewStatusHandler(deps.Archive, deps.Membership, deps.Events, deps.EventSource)
	metadataHandler := handlers.NewMetadataHandler(deps.Metadata)

	// Public routes
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(deps.AuthService))

			r.Post("/events", eventsHandler.PostEvent)

			r.Get("/tasks", tasksHandler.ListTasks)
			r.Post("/tasks/{name}/run", tasksHandler.RunTask)

			// /jobs/latest before the parameterized route
			r.Get("/jobs", jobsHandler.ListJobs)
			r.Get("/jobs/latest", jobsHandler.GetLatestJob)
			r.Get("/jobs/{id}", jobsHandler.GetJob)

			r.Get("/status", statusHandler.Handle)

			r.Get("/metadata/videos/{id}", metadataHandler.GetVideo)
			r.Get("/metadata/channels/{id}", metadataHandler.GetChannel)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not found"}`))
	})

	return r
}
