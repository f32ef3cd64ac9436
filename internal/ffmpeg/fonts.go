package ffmpeg

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"clipforge/internal/pkg/errors"
)

var fontExtensions = map[string]bool{
	".ttf": true,
	".otf": true,
	".ttc": true,
}

// FontResolver maps font family names to font files found in a set of
// directories. Lookups are case-insensitive and ignore spaces, so
// "Open Sans" matches OpenSans.ttf. Results are cached for the lifetime
// of the resolver.
type FontResolver struct {
	dirs   []string
	strict bool

	mu    sync.Mutex
	cache map[string]string
}

// NewFontResolver creates a resolver scanning dirs in order. In strict
// mode an unknown family is an error; otherwise Resolve returns an empty
// path and the caller falls back to the renderer's default font.
func NewFontResolver(dirs []string, strict bool) *FontResolver {
	return &FontResolver{
		dirs:   dirs,
		strict: strict,
		cache:  make(map[string]string),
	}
}

// Resolve returns the font file for a family name. An empty family, or an
// unknown family in non-strict mode, resolves to an empty path.
func (r *FontResolver) Resolve(family string) (string, error) {
	if family == "" {
		return "", nil
	}

	key := normalizeFamily(family)

	r.mu.Lock()
	path, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return path, nil
	}

	path = r.scan(key)
	if path == "" && r.strict {
		return "", errors.FontNotFound(family)
	}

	r.mu.Lock()
	r.cache[key] = path
	r.mu.Unlock()
	return path, nil
}

func (r *FontResolver) scan(key string) string {
	for _, dir := range r.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			ext := strings.ToLower(filepath.Ext(name))
			if !fontExtensions[ext] {
				continue
			}
			base := strings.TrimSuffix(name, filepath.Ext(name))
			if normalizeFamily(base) == key {
				return filepath.Join(dir, name)
			}
		}
	}
	return ""
}

func normalizeFamily(family string) string {
	return strings.ToLower(strings.ReplaceAll(family, " ", ""))
}
