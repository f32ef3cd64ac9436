package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"clipforge/internal/clip"
	"clipforge/internal/pkg/errors"
)

const defaultBackground = "black"

// Builder assembles render commands from resolved specs.
type Builder struct {
	fonts *FontResolver
}

// NewBuilder creates a builder. fonts may be nil, in which case drawtext
// always uses the renderer's default font.
func NewBuilder(fonts *FontResolver) *Builder {
	return &Builder{fonts: fonts}
}

type audioSource struct {
	input   int
	element *clip.Element
}

// Build assembles the command for a spec. The spec must already be
// validated; Build itself fails only on font resolution.
//
// Input 0 is a generated background canvas. Visual elements are layered
// in array order, so later elements render on top. Each element is shown
// only inside its timeline window via enable='between(t,start,end)'.
func (b *Builder) Build(spec *clip.Spec, outputPath string) (*Command, error) {
	return b.BuildWithSources(spec, nil, outputPath)
}

// BuildWithSources is Build with probe results attached. An element whose
// probed source carries no audio stream is left out of the mix rather
// than producing an unresolvable [N:a] reference in the filter graph.
// Sources with no probe entry are trusted to carry audio, so with probing
// disabled the spec alone decides what gets mixed.
func (b *Builder) BuildWithSources(spec *clip.Spec, sources map[string]SourceInfo, outputPath string) (*Command, error) {
	duration := spec.EffectiveDuration()

	bg := spec.Output.BackgroundColor
	if bg == "" {
		bg = defaultBackground
	}

	cmd := &Command{
		Codec:      GetCodecSettings(spec.Output.Format),
		Duration:   duration,
		OutputPath: outputPath,
	}
	cmd.Inputs = append(cmd.Inputs, Input{
		Options: []string{"-f", "lavfi"},
		URL: fmt.Sprintf("color=c=%s:s=%dx%d:r=%d:d=%s",
			bg,
			spec.Output.Resolution.Width, spec.Output.Resolution.Height,
			spec.Output.FrameRate,
			num(duration)),
	})

	var (
		parts   []string
		last    = "0:v"
		overlay int
		audio   []audioSource
	)

	addInput := func(url string, opts ...string) int {
		cmd.Inputs = append(cmd.Inputs, Input{Options: opts, URL: url})
		return len(cmd.Inputs) - 1
	}

	for i := range spec.Elements {
		e := &spec.Elements[i]
		switch e.Type {
		case clip.TypeVideo:
			idx := addInput(e.Source)
			in := e.Timeline.InPoint()
			chain := fmt.Sprintf("[%d:v]trim=%s:%s,setpts=PTS-STARTPTS,scale=iw*%s:ih*%s",
				idx, num(in), num(in+e.Timeline.Duration), num(e.Scale()), num(e.Scale()))
			chain += opacityFilter(e.Opacity())
			label := fmt.Sprintf("v%d", idx)
			parts = append(parts, chain+"["+label+"]")

			out := fmt.Sprintf("ov%d", overlay)
			parts = append(parts, overlayFilter(last, label, e)+"["+out+"]")
			last = out
			overlay++

			if e.AudioEnabled() && sourceHasAudio(sources, e.Source) {
				audio = append(audio, audioSource{input: idx, element: e})
			}

		case clip.TypeImage:
			idx := addInput(e.Source, "-loop", "1")
			chain := fmt.Sprintf("[%d:v]scale=iw*%s:ih*%s", idx, num(e.Scale()), num(e.Scale()))
			chain += opacityFilter(e.Opacity())
			label := fmt.Sprintf("v%d", idx)
			parts = append(parts, chain+"["+label+"]")

			out := fmt.Sprintf("ov%d", overlay)
			parts = append(parts, overlayFilter(last, label, e)+"["+out+"]")
			last = out
			overlay++

		case clip.TypeText:
			dt, err := b.drawtext(e)
			if err != nil {
				return nil, err
			}
			out := fmt.Sprintf("txt%d", i)
			parts = append(parts, fmt.Sprintf("[%s]%s[%s]", last, dt, out))
			last = out

		case clip.TypeAudio:
			if !sourceHasAudio(sources, e.Source) {
				continue
			}
			idx := addInput(e.Source)
			audio = append(audio, audioSource{input: idx, element: e})

		default:
			return nil, errors.Validationf("unknown element type %q", e.Type)
		}
	}

	if len(audio) > 0 {
		base := addInput("anullsrc=channel_layout=stereo:sample_rate=44100",
			"-f", "lavfi", "-t", num(duration))

		labels := []string{fmt.Sprintf("[%d:a]", base)}
		for k, src := range audio {
			label := fmt.Sprintf("a%d", k)
			parts = append(parts, audioChain(src)+"["+label+"]")
			labels = append(labels, "["+label+"]")
		}
		parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=first[aout]",
			strings.Join(labels, ""), len(labels)))
		cmd.AudioMap = "[aout]"
	}

	cmd.FilterGraph = strings.Join(parts, ";")
	if last == "0:v" {
		cmd.VideoMap = "0:v"
	} else {
		cmd.VideoMap = "[" + last + "]"
	}
	return cmd, nil
}

// overlayFilter composites a prepared stream onto the running chain,
// visible only inside the element's timeline window.
func overlayFilter(base, layer string, e *clip.Element) string {
	x, y := e.Pos()
	return fmt.Sprintf("[%s][%s]overlay=x=%s:y=%s:enable='between(t,%s,%s)'",
		base, layer,
		overlayCoord(x, "W", "w"), overlayCoord(y, "H", "h"),
		num(e.Timeline.Start), num(e.Timeline.End()))
}

// opacityFilter returns the alpha stage for translucent elements, or an
// empty string for fully opaque ones.
func opacityFilter(opacity float64) string {
	if opacity >= 1 {
		return ""
	}
	return ",format=rgba,colorchannelmixer=aa=" + num(opacity)
}

// sourceHasAudio reports whether a source may contribute to the mix.
// Unprobed sources are trusted.
func sourceHasAudio(sources map[string]SourceInfo, source string) bool {
	info, ok := sources[source]
	if !ok {
		return true
	}
	return info.HasAudio
}

// audioChain cuts a source's audio to its timeline window, applies
// element volume, and delays it to its start time on the output timeline.
func audioChain(src audioSource) string {
	e := src.element
	in := e.Timeline.InPoint()
	chain := fmt.Sprintf("[%d:a]atrim=%s:%s,asetpts=PTS-STARTPTS",
		src.input, num(in), num(in+e.Timeline.Duration))
	if e.Type == clip.TypeAudio && e.Volume != nil && *e.Volume != 1 {
		chain += ",volume=" + num(*e.Volume)
	}
	if e.Timeline.Start > 0 {
		ms := int(e.Timeline.Start * 1000)
		chain += fmt.Sprintf(",adelay=%d|%d", ms, ms)
	}
	return chain
}

func (b *Builder) drawtext(e *clip.Element) (string, error) {
	fontSize := 24
	color := "white"
	background := ""
	family := ""
	if e.Style != nil {
		if e.Style.FontSize != nil {
			fontSize = *e.Style.FontSize
		}
		if e.Style.Color != "" {
			color = e.Style.Color
		}
		background = e.Style.BackgroundColor
		family = e.Style.FontFamily
	}

	var sb strings.Builder
	sb.WriteString("drawtext=text='")
	sb.WriteString(escapeText(e.Text))
	sb.WriteString("'")

	if b.fonts != nil {
		fontFile, err := b.fonts.Resolve(family)
		if err != nil {
			return "", err
		}
		if fontFile != "" {
			sb.WriteString(":fontfile=")
			sb.WriteString(fontFile)
		}
	}

	fmt.Fprintf(&sb, ":fontsize=%d:fontcolor=%s", fontSize, color)
	if background != "" {
		sb.WriteString(":box=1:boxcolor=")
		sb.WriteString(hexColor(background))
	}

	x, y := e.Pos()
	fmt.Fprintf(&sb, ":x=%s:y=%s:enable='between(t,%s,%s)'",
		textCoord(x, "w", "text_w"), textCoord(y, "h", "text_h"),
		num(e.Timeline.Start), num(e.Timeline.End()))
	return sb.String(), nil
}

// overlayCoord renders one axis of an overlay position. canvas and layer
// are the ffmpeg overlay variables for that axis (W/w or H/h).
func overlayCoord(c clip.Coord, canvas, layer string) string {
	switch c.Kind {
	case clip.CoordCenter:
		return fmt.Sprintf("(%s-%s)/2", canvas, layer)
	case clip.CoordEdge:
		return fmt.Sprintf("%s-%s", canvas, layer)
	case clip.CoordFraction:
		return fmt.Sprintf("%s*%s-%s/2", canvas, num(c.Frac), layer)
	default:
		return strconv.Itoa(c.Px)
	}
}

// textCoord renders one axis of a drawtext position using the drawtext
// variable set (w/text_w or h/text_h).
func textCoord(c clip.Coord, canvas, text string) string {
	switch c.Kind {
	case clip.CoordCenter:
		return fmt.Sprintf("(%s-%s)/2", canvas, text)
	case clip.CoordEdge:
		return fmt.Sprintf("%s-%s", canvas, text)
	case clip.CoordFraction:
		return fmt.Sprintf("%s*%s-%s/2", canvas, num(c.Frac), text)
	default:
		return strconv.Itoa(c.Px)
	}
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`%`, `\%`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// hexColor converts rgb()/rgba() colors to #rrggbb; anything else passes
// through untouched. The alpha channel is dropped, matching how the box
// background behaved historically.
func hexColor(color string) string {
	s := strings.TrimSpace(color)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "rgb(") && !strings.HasPrefix(lower, "rgba(") {
		return color
	}
	open := strings.IndexByte(s, '(')
	end := strings.IndexByte(s, ')')
	if open < 0 || end < open {
		return color
	}
	fields := strings.Split(s[open+1:end], ",")
	if len(fields) < 3 {
		return color
	}
	var rgb [3]int
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return color
		}
		rgb[i] = int(v)
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}

// num prints a float without a trailing ".0" for whole values so filter
// expressions stay readable.
func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
