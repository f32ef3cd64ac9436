package template

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clipforge/internal/pkg/errors"
)

// Repository is a read-only template catalog: compiled-in builtins plus
// JSON files (<id>.json) from an optional directory. A file with the same
// id as a builtin overrides it.
type Repository struct {
	dir string
}

// NewRepository creates a repository backed by dir. An empty dir serves
// only the builtins.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Get returns the template with the given id, or TEMPLATE_NOT_FOUND.
func (r *Repository) Get(id string) (*Template, error) {
	if !validID(id) {
		return nil, errors.TemplateNotFound(id)
	}

	if r.dir != "" {
		path := filepath.Join(r.dir, id+".json")
		if data, err := os.ReadFile(path); err == nil {
			tpl, err := decode(data)
			if err != nil {
				return nil, errors.Wrap(err, "template.get", "malformed template file "+id)
			}
			if tpl.ID == "" {
				tpl.ID = id
			}
			return tpl, nil
		}
	}

	if tpl, ok := builtins[id]; ok {
		return tpl, nil
	}
	return nil, errors.TemplateNotFound(id)
}

// List returns catalog summaries sorted by id.
func (r *Repository) List() ([]Summary, error) {
	byID := make(map[string]Summary, len(builtins))
	for id, tpl := range builtins {
		byID[id] = Summary{ID: id, Name: tpl.Name, Description: tpl.Description}
	}

	if r.dir != "" {
		entries, err := os.ReadDir(r.dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "template.list", "failed to read template directory")
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			id := strings.TrimSuffix(name, ".json")
			if !validID(id) {
				continue
			}
			tpl, err := r.Get(id)
			if err != nil {
				continue
			}
			byID[id] = Summary{ID: id, Name: tpl.Name, Description: tpl.Description}
		}
	}

	out := make([]Summary, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func decode(data []byte) (*Template, error) {
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// validID keeps template lookups inside the template directory.
func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
