package clip

import (
	"fmt"

	"clipforge/internal/pkg/errors"
)

// Validate checks a spec against the model invariants. It is called after
// shorthand normalization and template resolution, before any job is
// created; a failing spec never reaches the render queue.
func (s *Spec) Validate() error {
	if s.Output.Resolution.Width <= 0 || s.Output.Resolution.Height <= 0 {
		return errors.ValidationField("output.resolution",
			fmt.Sprintf("resolution must be positive, got %dx%d",
				s.Output.Resolution.Width, s.Output.Resolution.Height))
	}
	if s.Output.FrameRate <= 0 {
		return errors.ValidationField("output.frame_rate", "frame rate must be positive")
	}
	if s.Output.Duration < 0 {
		return errors.ValidationField("output.duration", "duration must not be negative")
	}

	seen := make(map[string]struct{}, len(s.Elements))
	for i := range s.Elements {
		if err := validateElement(&s.Elements[i], i); err != nil {
			return err
		}
		id := s.Elements[i].ID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			return errors.ValidationField("elements",
				fmt.Sprintf("duplicate element id %q", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateElement(e *Element, idx int) error {
	field := func(name string) string {
		return fmt.Sprintf("elements[%d].%s", idx, name)
	}

	if !e.Type.Known() {
		return errors.ValidationField(field("type"),
			fmt.Sprintf("unknown element type %q", e.Type))
	}

	switch e.Type {
	case TypeText:
		if e.Text == "" {
			return errors.ValidationField(field("text"), "text is required for text elements")
		}
	default:
		if e.Source == "" {
			return errors.ValidationField(field("source"),
				fmt.Sprintf("source is required for %s elements", e.Type))
		}
	}

	if e.Timeline.Start < 0 {
		return errors.ValidationField(field("timeline.start"), "start must not be negative")
	}
	if e.Timeline.Duration <= 0 {
		return errors.ValidationField(field("timeline.duration"), "duration must be positive")
	}
	if e.Timeline.In != nil && *e.Timeline.In < 0 {
		return errors.ValidationField(field("timeline.in"), "in-point must not be negative")
	}

	if e.Transform != nil {
		if e.Transform.Scale != nil && *e.Transform.Scale <= 0 {
			return errors.ValidationField(field("transform.scale"), "scale must be positive")
		}
		if e.Transform.Opacity != nil && (*e.Transform.Opacity < 0 || *e.Transform.Opacity > 1) {
			return errors.ValidationField(field("transform.opacity"), "opacity must be within [0,1]")
		}
	}

	if e.Style != nil && e.Style.FontSize != nil && *e.Style.FontSize <= 0 {
		return errors.ValidationField(field("style.font_size"), "font size must be positive")
	}

	if e.Volume != nil && *e.Volume < 0 {
		return errors.ValidationField(field("volume"), "volume must not be negative")
	}

	return nil
}
