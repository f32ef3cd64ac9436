// Package config consolidates the service's environment configuration.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime knob of the API service. All values come
// from environment variables with working defaults, so a bare `cmd/api`
// run renders locally with the memory job store.
type Config struct {
	// HTTPPort is the listen port of the API server.
	HTTPPort string
	// APIKey guards all routes except /health when non-empty.
	APIKey string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// RedisAddr enables the Redis connection when non-empty. Required
	// when JobStoreBackend is "redis".
	RedisAddr string
	// JobStoreBackend selects the job store: memory or redis.
	JobStoreBackend string
	// JobTTL expires completed job records in the redis backend.
	// Zero keeps them forever.
	JobTTL time.Duration

	// Workers bounds concurrent renders.
	Workers int64
	// RenderTimeout bounds one render including the upload.
	RenderTimeout time.Duration
	// JobsRoot is the parent directory for per-job working directories.
	// Finished directories are kept; cleaning them up is an operational
	// concern outside the service.
	JobsRoot string
	// FFmpegBinary overrides the ffmpeg executable.
	FFmpegBinary string
	// ProbeSources pre-flights element sources with ffprobe before
	// rendering.
	ProbeSources bool

	// TemplateDir holds JSON template files layered over the builtins.
	TemplateDir string

	// FontDirs are scanned for font files, in order.
	FontDirs []string
	// FontStrict fails jobs referencing unknown font families instead of
	// falling back to the renderer's default font.
	FontStrict bool
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		APIKey:   getEnv("API_KEY", ""),

		ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		JobStoreBackend: getEnv("JOB_STORE", "memory"),
		JobTTL:          getDuration("JOB_TTL", 0),

		Workers:       getInt64("RENDER_WORKERS", 2),
		RenderTimeout: getDuration("RENDER_TIMEOUT", 10*time.Minute),
		JobsRoot:      getEnv("JOBS_ROOT", "jobs"),
		FFmpegBinary:  getEnv("FFMPEG_BINARY", "ffmpeg"),
		ProbeSources:  getBool("PROBE_SOURCES", false),

		TemplateDir: getEnv("TEMPLATE_DIR", "templates"),

		FontDirs:   getCSV("FONT_DIRS", []string{"/usr/share/fonts", "/usr/local/share/fonts"}),
		FontStrict: getBool("FONT_STRICT", false),
	}
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v == "true" || v == "1"
}

func getCSV(key string, def []string) []string {
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
