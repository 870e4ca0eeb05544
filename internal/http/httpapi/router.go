package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"covergen/internal/http/handlers"
	"covergen/internal/middleware"
)

// RouterOptions carries the cross-cutting settings the router applies.
type RouterOptions struct {
	Logger          zerolog.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	// StaticDir is served under /static when set.
	StaticDir string
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Recover(opts.Logger),
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)
	r.Group(func(r chi.Router) {
		r.Use(limited)
		// Supports every method so the handler can answer preflights and 405s itself.
		r.HandleFunc("/functions/v1/generate-course-cover", app.GenerateCourseCover)
		r.HandleFunc("/v1/courses/cover", app.GenerateCourseCover)
		r.Get("/v1/courses/{courseId}/cover-status", app.CoverStatus)
	})

	r.Post("/v1/webhooks/replicate", app.ReplicateWebhook)

	if dir := strings.TrimSpace(opts.StaticDir); dir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
