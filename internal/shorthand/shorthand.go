// Package shorthand expands convenience input fields (position and size
// presets) into canonical transform fields. Expansion runs before template
// resolution, so expanded values take part in the per-field merge exactly
// like explicitly supplied ones.
package shorthand

import (
	"encoding/json"
	"sort"

	"clipforge/internal/clip"
	"clipforge/internal/pkg/errors"
)

// Handler expands one shorthand property on an element. raw is the
// property's undecoded JSON value.
type Handler struct {
	// Raw extracts the shorthand payload from the element, nil when absent.
	Raw func(e *clip.Element) json.RawMessage
	// Clear removes the shorthand payload after expansion.
	Clear func(e *clip.Element)
	// Apply folds the payload into the element's canonical fields.
	Apply func(e *clip.Element, raw json.RawMessage) error
}

var registry = map[string]Handler{}

// Register associates a shorthand property name with its handler. Adding a
// new shorthand is a registration, never an edit of existing handlers.
func Register(name string, h Handler) {
	registry[name] = h
}

func init() {
	Register("position", Handler{
		Raw:   func(e *clip.Element) json.RawMessage { return e.Position },
		Clear: func(e *clip.Element) { e.Position = nil },
		Apply: expandPosition,
	})
	Register("size", Handler{
		Raw:   func(e *clip.Element) json.RawMessage { return e.Size },
		Clear: func(e *clip.Element) { e.Size = nil },
		Apply: expandSize,
	})
}

// Normalize expands every registered shorthand present on the element.
// Handlers run in name order for determinism.
func Normalize(e *clip.Element) error {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		h := registry[name]
		raw := h.Raw(e)
		if len(raw) == 0 {
			continue
		}
		if err := h.Apply(e, raw); err != nil {
			return err
		}
		h.Clear(e)
	}
	return nil
}

// NormalizeAll normalizes a slice of elements in place.
func NormalizeAll(elements []clip.Element) error {
	for i := range elements {
		if err := Normalize(&elements[i]); err != nil {
			return err
		}
	}
	return nil
}

// positionPresets maps preset names to canonical coordinates.
var positionPresets = map[string]clip.Position{
	"center":       pos(clip.Center(), clip.Center()),
	"top":          pos(clip.Center(), clip.Px(0)),
	"bottom":       pos(clip.Center(), clip.Edge()),
	"left":         pos(clip.Px(0), clip.Center()),
	"right":        pos(clip.Edge(), clip.Center()),
	"top-left":     pos(clip.Px(0), clip.Px(0)),
	"top-right":    pos(clip.Edge(), clip.Px(0)),
	"bottom-left":  pos(clip.Px(0), clip.Edge()),
	"bottom-right": pos(clip.Edge(), clip.Edge()),
	"mid-top":      pos(clip.Center(), clip.Frac(0.25)),
	"mid-bottom":   pos(clip.Center(), clip.Frac(0.75)),
}

// sizePresets maps preset names to scale multipliers.
var sizePresets = map[string]float64{
	"tiny":   0.25,
	"small":  0.5,
	"medium": 1.0,
	"large":  1.5,
	"huge":   2.0,
}

func pos(x, y clip.Coord) clip.Position {
	return clip.Position{X: &x, Y: &y}
}

func expandPosition(e *clip.Element, raw json.RawMessage) error {
	var preset string
	if err := json.Unmarshal(raw, &preset); err == nil {
		p, ok := positionPresets[preset]
		if !ok {
			return errors.InvalidPositionPreset(preset)
		}
		setPosition(e, p)
		return nil
	}

	// Coordinate pair form: {"x": ..., "y": ...} with either axis optional.
	var p clip.Position
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.WrapWithCode(err, errors.CodeInvalidPositionPreset,
			"shorthand.position", "position must be a preset name or {x,y} pair")
	}
	setPosition(e, p)
	return nil
}

func expandSize(e *clip.Element, raw json.RawMessage) error {
	var scale float64
	if err := json.Unmarshal(raw, &scale); err == nil {
		if scale <= 0 {
			return errors.InvalidSizePreset(string(raw))
		}
		setScale(e, scale)
		return nil
	}

	var preset string
	if err := json.Unmarshal(raw, &preset); err != nil {
		return errors.InvalidSizePreset(string(raw))
	}
	scale, ok := sizePresets[preset]
	if !ok {
		return errors.InvalidSizePreset(preset)
	}
	setScale(e, scale)
	return nil
}

func setPosition(e *clip.Element, p clip.Position) {
	if e.Transform == nil {
		e.Transform = &clip.Transform{}
	}
	if e.Transform.Position == nil {
		e.Transform.Position = &clip.Position{}
	}
	if p.X != nil {
		e.Transform.Position.X = p.X
	}
	if p.Y != nil {
		e.Transform.Position.Y = p.Y
	}
}

func setScale(e *clip.Element, scale float64) {
	if e.Transform == nil {
		e.Transform = &clip.Transform{}
	}
	e.Transform.Scale = &scale
}
