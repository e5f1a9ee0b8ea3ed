// Package api serves the ticketboard HTTP JSON API.
package api

import (
	"net/http"
	"time"

	"github.com/ALT-F4-LLC/ticketboard/internal/db"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Options tunes the router's middleware.
type Options struct {
	AllowedOrigins []string
	// RateLimit is the number of requests allowed per IP per minute. Zero
	// disables limiting.
	RateLimit int
}

// NewRouter builds the HTTP handler. store may be nil, in which case every
// /api route answers 503.
func NewRouter(log zerolog.Logger, store *db.Store, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(log))
	r.Use(Recoverer(log))
	r.Use(Metrics)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", actorHeader},
	}))
	if opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
	}

	r.Get("/healthz", Health(store))
	r.Handle("/metrics", promhttp.Handler())

	h := &handlers{store: store, log: log}

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireStore(store))

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", h.listTickets())
			r.Post("/", h.createTicket())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getTicket())
				r.Put("/", h.updateTicket())
				r.Delete("/", h.deleteTicket())
				r.Get("/activity", h.listActivity())
				r.Post("/attachments", h.addAttachment())
				r.Delete("/attachments/{attachmentID}", h.removeAttachment())
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers())
			r.Post("/", h.createUser())
		})

		r.Post("/setup-db", h.setupDB())
		r.Get("/test-db", h.testDB())
	})

	return r
}

type handlers struct {
	store *db.Store
	log   zerolog.Logger
}
