// Package clip defines the canonical model of a renderable clip: output
// settings plus an ordered list of elements with timelines and transforms.
package clip

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ElementType tags the variant of a renderable element.
type ElementType string

const (
	TypeVideo ElementType = "video"
	TypeImage ElementType = "image"
	TypeText  ElementType = "text"
	TypeAudio ElementType = "audio"
)

// Known reports whether t is one of the supported element types.
func (t ElementType) Known() bool {
	switch t {
	case TypeVideo, TypeImage, TypeText, TypeAudio:
		return true
	}
	return false
}

// Visual reports whether elements of this type produce pixels.
func (t ElementType) Visual() bool {
	return t == TypeVideo || t == TypeImage || t == TypeText
}

// CoordKind discriminates how a coordinate is anchored on the canvas.
type CoordKind int

const (
	// CoordPixels is an absolute pixel offset from the top-left corner.
	CoordPixels CoordKind = iota
	// CoordCenter centers the element's post-scale extent on that axis.
	CoordCenter
	// CoordEdge places the element flush against the far edge (right or
	// bottom) of the canvas.
	CoordEdge
	// CoordFraction anchors at a fraction of the canvas extent.
	CoordFraction
)

// Coord is one axis of a position. In JSON it is either a number (pixels)
// or one of the symbolic strings "center", "edge", "<n>%".
type Coord struct {
	Kind CoordKind
	Px   int
	Frac float64
}

// Px returns a pixel-anchored coordinate.
func Px(n int) Coord { return Coord{Kind: CoordPixels, Px: n} }

// Center returns a center-anchored coordinate.
func Center() Coord { return Coord{Kind: CoordCenter} }

// Edge returns a far-edge-anchored coordinate.
func Edge() Coord { return Coord{Kind: CoordEdge} }

// Frac returns a coordinate anchored at fraction f of the canvas extent.
func Frac(f float64) Coord { return Coord{Kind: CoordFraction, Frac: f} }

func (c Coord) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CoordPixels:
		return json.Marshal(c.Px)
	case CoordCenter:
		return json.Marshal("center")
	case CoordEdge:
		return json.Marshal("edge")
	case CoordFraction:
		return json.Marshal(strconv.FormatFloat(c.Frac*100, 'g', -1, 64) + "%")
	}
	return nil, fmt.Errorf("unknown coord kind %d", c.Kind)
}

func (c *Coord) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if n != math.Trunc(n) {
			return fmt.Errorf("pixel coordinate must be an integer, got %s", data)
		}
		*c = Px(int(n))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("coordinate must be a number or symbolic string: %s", data)
	}

	switch {
	case s == "center":
		*c = Center()
	case s == "edge":
		*c = Edge()
	case strings.HasSuffix(s, "%"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return fmt.Errorf("invalid fractional coordinate %q", s)
		}
		*c = Frac(f / 100)
	default:
		return fmt.Errorf("unknown symbolic coordinate %q", s)
	}
	return nil
}

// Position is a pair of optional axis coordinates. Nil axes inherit from
// template defaults during merge and fall back to 0 at build time.
type Position struct {
	X *Coord `json:"x,omitempty"`
	Y *Coord `json:"y,omitempty"`
}

// Transform holds scale, position and opacity. Pointer fields distinguish
// "caller omitted" from explicit zero values for the per-field merge.
type Transform struct {
	Scale    *float64  `json:"scale,omitempty"`
	Position *Position `json:"position,omitempty"`
	Opacity  *float64  `json:"opacity,omitempty"`
}

// Style holds text rendering attributes.
type Style struct {
	FontFamily      string `json:"font_family,omitempty"`
	FontSize        *int   `json:"font_size,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	Alignment       string `json:"alignment,omitempty"`
}

// Timeline places an element in time. In is the optional source in-point
// for video and audio elements.
type Timeline struct {
	Start    float64  `json:"start"`
	Duration float64  `json:"duration"`
	In       *float64 `json:"in,omitempty"`
}

// End returns the element's end time on the output timeline.
func (t Timeline) End() float64 { return t.Start + t.Duration }

// InPoint returns the source in-point, defaulting to 0.
func (t Timeline) InPoint() float64 {
	if t.In != nil {
		return *t.In
	}
	return 0
}

// Element is one renderable unit. Position and Size are shorthand
// convenience inputs expanded into Transform by the shorthand package
// before validation and template merge.
type Element struct {
	Type     ElementType `json:"type"`
	ID       string      `json:"id,omitempty"`
	Source   string      `json:"source,omitempty"`
	Text     string      `json:"text,omitempty"`
	Timeline Timeline    `json:"timeline"`

	Transform *Transform `json:"transform,omitempty"`
	Style     *Style     `json:"style,omitempty"`

	// Audio toggles the audio track of video elements.
	Audio *bool `json:"audio,omitempty"`
	// Volume applies to audio elements (1.0 = source level).
	Volume *float64 `json:"volume,omitempty"`

	Position json.RawMessage `json:"position,omitempty"`
	Size     json.RawMessage `json:"size,omitempty"`
}

// Clone returns a deep copy of the element. Nested pointer groups are
// duplicated, so mutating the copy never touches the original.
func (e Element) Clone() Element {
	out := e
	if e.Transform != nil {
		t := *e.Transform
		if t.Scale != nil {
			v := *t.Scale
			t.Scale = &v
		}
		if t.Opacity != nil {
			v := *t.Opacity
			t.Opacity = &v
		}
		if t.Position != nil {
			p := *t.Position
			if p.X != nil {
				x := *p.X
				p.X = &x
			}
			if p.Y != nil {
				y := *p.Y
				p.Y = &y
			}
			t.Position = &p
		}
		out.Transform = &t
	}
	if e.Style != nil {
		s := *e.Style
		if s.FontSize != nil {
			v := *s.FontSize
			s.FontSize = &v
		}
		out.Style = &s
	}
	if e.Timeline.In != nil {
		v := *e.Timeline.In
		out.Timeline.In = &v
	}
	if e.Audio != nil {
		v := *e.Audio
		out.Audio = &v
	}
	if e.Volume != nil {
		v := *e.Volume
		out.Volume = &v
	}
	if e.Position != nil {
		out.Position = append(json.RawMessage(nil), e.Position...)
	}
	if e.Size != nil {
		out.Size = append(json.RawMessage(nil), e.Size...)
	}
	return out
}

// Scale returns the effective scale factor (default 1.0).
func (e *Element) Scale() float64 {
	if e.Transform != nil && e.Transform.Scale != nil {
		return *e.Transform.Scale
	}
	return 1.0
}

// Opacity returns the effective opacity (default 1.0).
func (e *Element) Opacity() float64 {
	if e.Transform != nil && e.Transform.Opacity != nil {
		return *e.Transform.Opacity
	}
	return 1.0
}

// Pos returns the effective position, defaulting each axis to pixel 0.
func (e *Element) Pos() (x, y Coord) {
	x, y = Px(0), Px(0)
	if e.Transform != nil && e.Transform.Position != nil {
		if e.Transform.Position.X != nil {
			x = *e.Transform.Position.X
		}
		if e.Transform.Position.Y != nil {
			y = *e.Transform.Position.Y
		}
	}
	return x, y
}

// AudioEnabled reports whether a video element contributes its audio track.
func (e *Element) AudioEnabled() bool {
	return e.Type == TypeVideo && e.Audio != nil && *e.Audio
}

// Resolution is the output canvas size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Output holds the encoding settings of the final render.
type Output struct {
	Resolution      Resolution `json:"resolution"`
	FrameRate       int        `json:"frame_rate"`
	Format          string     `json:"format,omitempty"`
	Duration        float64    `json:"duration,omitempty"`
	BackgroundColor string     `json:"background_color,omitempty"`
}

// Spec is a fully-resolved description of a clip to render.
type Spec struct {
	Output   Output    `json:"output"`
	Elements []Element `json:"elements"`
}

// EffectiveDuration returns the explicit output duration, or the maximum
// element end time when no duration was requested.
func (s *Spec) EffectiveDuration() float64 {
	if s.Output.Duration > 0 {
		return s.Output.Duration
	}
	var max float64
	for i := range s.Elements {
		if end := s.Elements[i].Timeline.End(); end > max {
			max = end
		}
	}
	return max
}

// EnsureIDs assigns <type>-<index> identifiers to elements missing one.
func (s *Spec) EnsureIDs() {
	for i := range s.Elements {
		if s.Elements[i].ID == "" {
			s.Elements[i].ID = fmt.Sprintf("%s-%d", s.Elements[i].Type, i)
		}
	}
}
