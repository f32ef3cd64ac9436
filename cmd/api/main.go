package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"clipforge/internal/config"
	"clipforge/internal/ffmpeg"
	"clipforge/internal/httpapi"
	"clipforge/internal/jobstore"
	"clipforge/internal/pkg/logger"
	"clipforge/internal/pkg/shutdown"
	"clipforge/internal/render"
	"clipforge/internal/storage"
	"clipforge/internal/template"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	log := logger.New(logger.DefaultConfig())
	cfg := config.Load()

	log.Info("starting clipforge API", "version", "0.1.0")

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, cfg.ShutdownTimeout)

	// Redis is optional: only the redis job store backend needs it.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		log.Info("connecting to Redis", "addr", cfg.RedisAddr)
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.LogFatal("failed to ping Redis", err)
		}
		shutdownMgr.Register("redis", func(ctx context.Context) error {
			return rdb.Close()
		})
		log.Info("Redis connected")
	}

	store, err := jobstore.New(cfg.JobStoreBackend, rdb, cfg.JobTTL)
	if err != nil {
		log.LogFatal("failed to initialize job store", err)
	}
	log.Info("job store initialized", "backend", cfg.JobStoreBackend)

	sp, err := storage.NewProvider()
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	if err := os.MkdirAll(cfg.JobsRoot, 0o755); err != nil {
		log.LogFatal("failed to create jobs directory", err)
	}

	fonts := ffmpeg.NewFontResolver(cfg.FontDirs, cfg.FontStrict)
	builder := ffmpeg.NewBuilder(fonts)

	runner := render.NewFFmpegRunner(builder, sp, cfg.JobsRoot, log)
	runner.Binary = cfg.FFmpegBinary
	if cfg.ProbeSources {
		runner.Probe = ffmpeg.NewProber()
	}

	pool := render.NewPool(runner, store, cfg.Workers, cfg.RenderTimeout, log)
	shutdownMgr.Register("render-pool", pool.Wait)

	router := httpapi.NewRouter(httpapi.Deps{
		Store:     store,
		Pool:      pool,
		Templates: template.NewRepository(cfg.TemplateDir),
		SP:        sp,
		RDB:       rdb,
		Fonts:     fonts,
		Log:       log,
		APIKey:    cfg.APIKey,
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"workers", cfg.Workers,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}
