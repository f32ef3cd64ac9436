// Package httpapi wires the HTTP surface: clip submission, job status
// and download, the template catalog, and health.
package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"clipforge/internal/ffmpeg"
	"clipforge/internal/httpapi/handlers"
	"clipforge/internal/httpkit"
	"clipforge/internal/jobstore"
	"clipforge/internal/pkg/logger"
	"clipforge/internal/pkg/middleware"
	"clipforge/internal/ports"
	"clipforge/internal/render"
	"clipforge/internal/template"
)

type Deps struct {
	Store     jobstore.Store
	Pool      *render.Pool
	Templates *template.Repository
	SP        ports.StorageProvider
	RDB       *redis.Client
	Fonts     *ffmpeg.FontResolver
	Log       *logger.Logger

	// APIKey guards all routes except /health when non-empty.
	APIKey string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Log))
	r.Use(middleware.Recovery(d.Log))

	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{"*"})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
		MaxAgeSeconds:  600,
	}))

	h := handlers.New(handlers.Deps{
		Store:     d.Store,
		Pool:      d.Pool,
		Templates: d.Templates,
		SP:        d.SP,
		RDB:       d.RDB,
		Fonts:     d.Fonts,
		Log:       d.Log,
	})

	// Health stays reachable without credentials for probes.
	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(d.APIKey))

		r.Post("/clip", h.PostClip)
		r.Post("/template-clip", h.PostTemplateClip)
		r.Get("/clip", h.ListJobs)
		r.Get("/clip/{jobId}", h.GetJob)
		r.Get("/clip/{jobId}/download", h.DownloadClip)

		r.Get("/templates", h.ListTemplates)
		r.Get("/templates/{templateId}", h.GetTemplate)
	})

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
