// Package template provides the named-template catalog and the resolver
// that merges caller-supplied partial elements onto a template's per-type
// defaults.
package template

import (
	"clipforge/internal/clip"
)

// Fragment is the default element fragment a template supplies for one
// element type. Caller fields are merged over it field by field.
type Fragment struct {
	Transform *clip.Transform `json:"transform,omitempty"`
	Style     *clip.Style     `json:"style,omitempty"`
	Audio     *bool           `json:"audio,omitempty"`
	Volume    *float64        `json:"volume,omitempty"`
}

// Template is a named set of output defaults and per-type element defaults.
type Template struct {
	ID          string                             `json:"id"`
	Name        string                             `json:"name"`
	Description string                             `json:"description,omitempty"`
	Output      clip.Output                        `json:"output"`
	Defaults    map[clip.ElementType]Fragment      `json:"defaults"`
}

// Summary is the catalog listing shape exposed over HTTP.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
