package handlers

import (
	"github.com/redis/go-redis/v9"

	"clipforge/internal/ffmpeg"
	"clipforge/internal/jobstore"
	"clipforge/internal/pkg/logger"
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
	// Fonts, when set, rejects requests referencing unresolvable font
	// families before a job is created.
	Fonts *ffmpeg.FontResolver
	Log   *logger.Logger
}

type Handler struct {
	store     jobstore.Store
	pool      *render.Pool
	templates *template.Repository
	sp        ports.StorageProvider
	rdb       *redis.Client
	fonts     *ffmpeg.FontResolver
	log       *logger.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		store:     d.Store,
		pool:      d.Pool,
		templates: d.Templates,
		sp:        d.SP,
		rdb:       d.RDB,
		fonts:     d.Fonts,
		log:       d.Log,
	}
}
