package template

import (
	"clipforge/internal/clip"
	"clipforge/internal/pkg/errors"
	"clipforge/internal/shorthand"
)

// Resolve merges caller-supplied partial elements onto a template's
// defaults and returns a fully-resolved spec.
//
// Shorthand properties are expanded first, so their canonical fields
// participate in the merge like any explicitly supplied value. The merge is
// per-field: defaults apply first, caller values override last, recursing
// one level into the known nested groups (transform.position axes
// individually, each style attribute individually). Nothing merges deeper.
func Resolve(tpl *Template, elements []clip.Element) (*clip.Spec, error) {
	// Deep copies keep shorthand expansion and merge from writing through
	// pointers shared with the caller's elements.
	resolved := make([]clip.Element, len(elements))
	for i := range elements {
		resolved[i] = elements[i].Clone()
	}

	if err := shorthand.NormalizeAll(resolved); err != nil {
		return nil, err
	}

	for i := range resolved {
		e := &resolved[i]
		if !e.Type.Known() {
			return nil, errors.ValidationField("elements",
				"unknown element type "+string(e.Type))
		}
		frag := tpl.Defaults[e.Type]
		mergeFragment(e, frag)
	}

	spec := &clip.Spec{
		Output:   tpl.Output,
		Elements: resolved,
	}
	spec.Output.Duration = resolvedDuration(tpl, resolved)
	spec.EnsureIDs()

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// resolvedDuration follows the original behavior: the output runs to the
// latest element end time, falling back to the template duration when the
// request carries no elements.
func resolvedDuration(tpl *Template, elements []clip.Element) float64 {
	if len(elements) == 0 {
		return tpl.Output.Duration
	}
	var max float64
	for i := range elements {
		if end := elements[i].Timeline.End(); end > max {
			max = end
		}
	}
	return max
}

// mergeFragment folds the template defaults into the element wherever the
// caller left a field unset.
func mergeFragment(e *clip.Element, frag Fragment) {
	if e.Type != clip.TypeAudio {
		e.Transform = mergeTransform(frag.Transform, e.Transform)
	}

	if e.Type == clip.TypeText {
		e.Style = mergeStyle(frag.Style, e.Style)
	}

	if e.Type == clip.TypeVideo && e.Audio == nil {
		if frag.Audio != nil {
			e.Audio = frag.Audio
		} else {
			enabled := true
			e.Audio = &enabled
		}
	}

	if e.Type == clip.TypeAudio && e.Volume == nil {
		e.Volume = frag.Volume
	}
}

func mergeTransform(def, caller *clip.Transform) *clip.Transform {
	if def == nil {
		return caller
	}
	out := &clip.Transform{}
	if caller != nil {
		*out = *caller
	}

	if out.Scale == nil {
		out.Scale = def.Scale
	}
	if out.Opacity == nil {
		out.Opacity = def.Opacity
	}
	out.Position = mergePosition(def.Position, out.Position)
	return out
}

func mergePosition(def, caller *clip.Position) *clip.Position {
	if def == nil {
		return caller
	}
	out := &clip.Position{}
	if caller != nil {
		*out = *caller
	}
	if out.X == nil {
		out.X = def.X
	}
	if out.Y == nil {
		out.Y = def.Y
	}
	return out
}

func mergeStyle(def, caller *clip.Style) *clip.Style {
	if def == nil {
		return caller
	}
	out := &clip.Style{}
	if caller != nil {
		*out = *caller
	}

	if out.FontFamily == "" {
		out.FontFamily = def.FontFamily
	}
	if out.FontSize == nil {
		out.FontSize = def.FontSize
	}
	if out.Color == "" {
		out.Color = def.Color
	}
	if out.BackgroundColor == "" {
		out.BackgroundColor = def.BackgroundColor
	}
	if out.Alignment == "" {
		out.Alignment = def.Alignment
	}
	return out
}
