package ffmpeg

import (
	"strings"
	"testing"

	"clipforge/internal/clip"
	"clipforge/internal/pkg/errors"
)

func f64(f float64) *float64 { return &f }
func i(n int) *int           { return &n }
func b(v bool) *bool         { return &v }

func coord(c clip.Coord) *clip.Coord { return &c }

// The reel scenario: a full-screen scaled video with audio plus a centered
// caption box, rendered to a 1080x1920 mp4.
func reelSpec() *clip.Spec {
	return &clip.Spec{
		Output: clip.Output{
			Resolution:      clip.Resolution{Width: 1080, Height: 1920},
			FrameRate:       30,
			Format:          "mp4",
			Duration:        10,
			BackgroundColor: "#000000",
		},
		Elements: []clip.Element{
			{
				Type:     clip.TypeVideo,
				ID:       "video-0",
				Source:   "https://example.com/background.mp4",
				Timeline: clip.Timeline{Start: 0, Duration: 10},
				Transform: &clip.Transform{
					Scale:    f64(1.5),
					Position: &clip.Position{X: coord(clip.Px(0)), Y: coord(clip.Px(0))},
					Opacity:  f64(1.0),
				},
				Audio: b(true),
			},
			{
				Type:     clip.TypeText,
				ID:       "text-1",
				Text:     "STUNNING VIEWS",
				Timeline: clip.Timeline{Start: 0, Duration: 10},
				Transform: &clip.Transform{
					Position: &clip.Position{X: coord(clip.Center()), Y: coord(clip.Px(200))},
				},
				Style: &clip.Style{
					FontSize:        i(48),
					Color:           "white",
					BackgroundColor: "rgba(0,0,0,0.3)",
				},
			},
		},
	}
}

func TestBuildReelScenario(t *testing.T) {
	cmd, err := NewBuilder(nil).Build(reelSpec(), "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := cmd.Inputs[0].URL; got != "color=c=#000000:s=1080x1920:r=30:d=10" {
		t.Errorf("background input = %q", got)
	}
	if cmd.Inputs[1].URL != "https://example.com/background.mp4" {
		t.Errorf("video input = %q", cmd.Inputs[1].URL)
	}

	parts := strings.Split(cmd.FilterGraph, ";")
	want := []string{
		"[1:v]trim=0:10,setpts=PTS-STARTPTS,scale=iw*1.5:ih*1.5[v1]",
		"[0:v][v1]overlay=x=0:y=0:enable='between(t,0,10)'[ov0]",
		"[ov0]drawtext=text='STUNNING VIEWS':fontsize=48:fontcolor=white:box=1:boxcolor=#000000:x=(w-text_w)/2:y=200:enable='between(t,0,10)'[txt1]",
		"[1:a]atrim=0:10,asetpts=PTS-STARTPTS[a0]",
		"[2:a][a0]amix=inputs=2:duration=first[aout]",
	}
	if len(parts) != len(want) {
		t.Fatalf("filter graph has %d stages, want %d:\n%s", len(parts), len(want), cmd.FilterGraph)
	}
	for idx, w := range want {
		if parts[idx] != w {
			t.Errorf("stage %d = %q\nwant       %q", idx, parts[idx], w)
		}
	}

	if cmd.VideoMap != "[txt1]" {
		t.Errorf("video map = %q, text must be the topmost layer", cmd.VideoMap)
	}
	if cmd.AudioMap != "[aout]" {
		t.Errorf("audio map = %q", cmd.AudioMap)
	}

	args := strings.Join(cmd.Args(), " ")
	for _, frag := range []string{
		"-y ",
		"-t 10 -c:v libx264 -preset medium -pix_fmt yuv420p -c:a aac -b:a 128k /tmp/out.mp4",
	} {
		if !strings.Contains(args+" ", frag) {
			t.Errorf("args missing %q:\n%s", frag, args)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	builder := NewBuilder(nil)
	first, err := builder.Build(reelSpec(), "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	second, err := builder.Build(reelSpec(), "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Errorf("same spec produced different commands:\n%s\n%s", first, second)
	}
}

func TestBuildTextOnlyDrawsOnBackground(t *testing.T) {
	spec := &clip.Spec{
		Output: clip.Output{
			Resolution: clip.Resolution{Width: 1920, Height: 1080},
			FrameRate:  30,
			Duration:   5,
		},
		Elements: []clip.Element{
			{Type: clip.TypeText, ID: "text-0", Text: "hello", Timeline: clip.Timeline{Start: 1, Duration: 3}},
		},
	}

	cmd, err := NewBuilder(nil).Build(spec, "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(cmd.FilterGraph, "[0:v]drawtext=") {
		t.Errorf("drawtext should apply to the background: %s", cmd.FilterGraph)
	}
	if !strings.Contains(cmd.FilterGraph, "enable='between(t,1,4)'") {
		t.Errorf("missing timeline window: %s", cmd.FilterGraph)
	}
	if cmd.AudioMap != "" {
		t.Errorf("no audio sources, audio map = %q", cmd.AudioMap)
	}
	if got := cmd.Inputs[0].URL; got != "color=c=black:s=1920x1080:r=30:d=5" {
		t.Errorf("default background = %q", got)
	}
}

func TestBuildNoElementsMapsBackground(t *testing.T) {
	spec := &clip.Spec{
		Output: clip.Output{
			Resolution: clip.Resolution{Width: 640, Height: 480},
			FrameRate:  24,
			Duration:   3,
		},
	}

	cmd, err := NewBuilder(nil).Build(spec, "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.FilterGraph != "" {
		t.Errorf("unexpected filter graph %q", cmd.FilterGraph)
	}
	if cmd.VideoMap != "0:v" {
		t.Errorf("video map = %q, want raw background", cmd.VideoMap)
	}
}

func TestBuildOpacityAndInPoint(t *testing.T) {
	in := 2.5
	spec := &clip.Spec{
		Output: clip.Output{
			Resolution: clip.Resolution{Width: 1280, Height: 720},
			FrameRate:  30,
			Duration:   8,
		},
		Elements: []clip.Element{
			{
				Type:      clip.TypeVideo,
				ID:        "video-0",
				Source:    "clip.mp4",
				Timeline:  clip.Timeline{Start: 1, Duration: 4, In: &in},
				Transform: &clip.Transform{Opacity: f64(0.5)},
			},
		},
	}

	cmd, err := NewBuilder(nil).Build(spec, "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	want := "[1:v]trim=2.5:6.5,setpts=PTS-STARTPTS,scale=iw*1:ih*1,format=rgba,colorchannelmixer=aa=0.5[v1]"
	if !strings.Contains(cmd.FilterGraph, want) {
		t.Errorf("graph missing %q:\n%s", want, cmd.FilterGraph)
	}
	if !strings.Contains(cmd.FilterGraph, "enable='between(t,1,5)'") {
		t.Errorf("overlay window wrong:\n%s", cmd.FilterGraph)
	}
}

func TestBuildImageLoopsInput(t *testing.T) {
	spec := &clip.Spec{
		Output: clip.Output{
			Resolution: clip.Resolution{Width: 1080, Height: 1080},
			FrameRate:  30,
			Duration:   6,
		},
		Elements: []clip.Element{
			{
				Type:     clip.TypeImage,
				ID:       "image-0",
				Source:   "logo.png",
				Timeline: clip.Timeline{Start: 0, Duration: 6},
				Transform: &clip.Transform{
					Scale:    f64(0.5),
					Position: &clip.Position{X: coord(clip.Edge()), Y: coord(clip.Edge())},
				},
			},
		},
	}

	cmd, err := NewBuilder(nil).Build(spec, "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if got := cmd.Inputs[1].Options; len(got) != 2 || got[0] != "-loop" || got[1] != "1" {
		t.Errorf("image input options = %v, want -loop 1", got)
	}
	if !strings.Contains(cmd.FilterGraph, "overlay=x=W-w:y=H-h:") {
		t.Errorf("edge anchoring missing:\n%s", cmd.FilterGraph)
	}
}

func TestBuildAudioElementVolumeAndDelay(t *testing.T) {
	spec := &clip.Spec{
		Output: clip.Output{
			Resolution: clip.Resolution{Width: 1280, Height: 720},
			FrameRate:  30,
			Duration:   12,
		},
		Elements: []clip.Element{
			{
				Type:     clip.TypeAudio,
				ID:       "audio-0",
				Source:   "music.mp3",
				Timeline: clip.Timeline{Start: 2, Duration: 10},
				Volume:   f64(0.3),
			},
		},
	}

	cmd, err := NewBuilder(nil).Build(spec, "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	want := "atrim=0:10,asetpts=PTS-STARTPTS,volume=0.3,adelay=2000|2000[a0]"
	if !strings.Contains(cmd.FilterGraph, want) {
		t.Errorf("audio chain missing %q:\n%s", want, cmd.FilterGraph)
	}
	if cmd.VideoMap != "0:v" {
		t.Errorf("video map = %q", cmd.VideoMap)
	}
	if cmd.AudioMap != "[aout]" {
		t.Errorf("audio map = %q", cmd.AudioMap)
	}
}

func TestBuildDropsProbedSilentSource(t *testing.T) {
	spec := reelSpec()
	sources := map[string]SourceInfo{
		"https://example.com/background.mp4": {Duration: 12, Width: 1920, Height: 1080, HasAudio: false},
	}

	cmd, err := NewBuilder(nil).BuildWithSources(spec, sources, "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}

	if cmd.AudioMap != "" {
		t.Errorf("audio map = %q, want none for a silent source", cmd.AudioMap)
	}
	if strings.Contains(cmd.FilterGraph, "atrim") || strings.Contains(cmd.FilterGraph, "amix") {
		t.Errorf("silent source still mixed:\n%s", cmd.FilterGraph)
	}
	for _, in := range cmd.Inputs {
		if strings.HasPrefix(in.URL, "anullsrc") {
			t.Errorf("silence base added with nothing to mix: %q", in.URL)
		}
	}
	// The video layer itself is unaffected.
	if !strings.Contains(cmd.FilterGraph, "[1:v]trim=0:10") {
		t.Errorf("video chain missing:\n%s", cmd.FilterGraph)
	}
	if args := strings.Join(cmd.Args(), " "); strings.Contains(args, "-c:a") {
		t.Errorf("audio codec flags present without an audio map:\n%s", args)
	}
}

func TestBuildKeepsProbedAudibleAndUnprobedSources(t *testing.T) {
	spec := reelSpec()
	spec.Elements = append(spec.Elements, clip.Element{
		Type:     clip.TypeAudio,
		ID:       "audio-2",
		Source:   "music.mp3",
		Timeline: clip.Timeline{Start: 0, Duration: 10},
	})
	// The video is probed audible, the music track is unprobed.
	sources := map[string]SourceInfo{
		"https://example.com/background.mp4": {Duration: 12, HasAudio: true},
	}

	cmd, err := NewBuilder(nil).BuildWithSources(spec, sources, "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}

	if cmd.AudioMap != "[aout]" {
		t.Errorf("audio map = %q", cmd.AudioMap)
	}
	if !strings.Contains(cmd.FilterGraph, "amix=inputs=3:duration=first[aout]") {
		t.Errorf("expected both sources mixed over the silence base:\n%s", cmd.FilterGraph)
	}
}

func TestBuildFractionCoordinates(t *testing.T) {
	spec := &clip.Spec{
		Output: clip.Output{
			Resolution: clip.Resolution{Width: 1080, Height: 1920},
			FrameRate:  30,
			Duration:   5,
		},
		Elements: []clip.Element{
			{
				Type:     clip.TypeText,
				ID:       "text-0",
				Text:     "hi",
				Timeline: clip.Timeline{Start: 0, Duration: 5},
				Transform: &clip.Transform{
					Position: &clip.Position{X: coord(clip.Center()), Y: coord(clip.Frac(0.25))},
				},
			},
		},
	}

	cmd, err := NewBuilder(nil).Build(spec, "/tmp/out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(cmd.FilterGraph, ":x=(w-text_w)/2:y=h*0.25-text_h/2:") {
		t.Errorf("fractional anchoring missing:\n%s", cmd.FilterGraph)
	}
}

func TestBuildWebmCodecs(t *testing.T) {
	spec := &clip.Spec{
		Output: clip.Output{
			Resolution: clip.Resolution{Width: 640, Height: 480},
			FrameRate:  30,
			Format:     "webm",
			Duration:   3,
		},
	}

	cmd, err := NewBuilder(nil).Build(spec, "/tmp/out.webm")
	if err != nil {
		t.Fatal(err)
	}
	args := strings.Join(cmd.Args(), " ")
	if !strings.Contains(args, "-c:v libvpx-vp9") {
		t.Errorf("webm should use vp9: %s", args)
	}
	if strings.Contains(args, "-preset") {
		t.Errorf("vp9 has no x264 preset: %s", args)
	}
}

func TestBuildStrictFontFailure(t *testing.T) {
	fonts := NewFontResolver([]string{t.TempDir()}, true)
	spec := &clip.Spec{
		Output: clip.Output{
			Resolution: clip.Resolution{Width: 640, Height: 480},
			FrameRate:  30,
			Duration:   3,
		},
		Elements: []clip.Element{
			{
				Type:     clip.TypeText,
				ID:       "text-0",
				Text:     "hi",
				Timeline: clip.Timeline{Start: 0, Duration: 3},
				Style:    &clip.Style{FontFamily: "No Such Font"},
			},
		},
	}

	_, err := NewBuilder(fonts).Build(spec, "/tmp/out.mp4")
	if !errors.IsCode(err, errors.CodeFontNotFound) {
		t.Errorf("expected FONT_NOT_FOUND, got %v", err)
	}
}

func TestEscapeText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"50% off: now", `50\% off\: now`},
		{"it's", `it\'s`},
		{`back\slash`, `back\\slash`},
	}
	for _, c := range cases {
		if got := escapeText(c.in); got != c.want {
			t.Errorf("escapeText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHexColor(t *testing.T) {
	cases := []struct{ in, want string }{
		{"rgba(0,0,0,0.3)", "#000000"},
		{"rgba(255, 128, 0, 1)", "#ff8000"},
		{"rgb(16,32,48)", "#102030"},
		{"white", "white"},
		{"#abcdef", "#abcdef"},
		{"rgba(nope)", "rgba(nope)"},
	}
	for _, c := range cases {
		if got := hexColor(c.in); got != c.want {
			t.Errorf("hexColor(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCommandStringQuoting(t *testing.T) {
	cmd := &Command{
		Inputs:      []Input{{URL: "in.mp4"}},
		FilterGraph: "[0:v]drawtext=text='hi'[t0]",
		VideoMap:    "[t0]",
		Codec:       GetCodecSettings("mp4"),
		Duration:    1,
		OutputPath:  "/tmp/out.mp4",
	}
	s := cmd.String()
	if !strings.HasPrefix(s, "ffmpeg -y ") {
		t.Errorf("log line = %q", s)
	}
	if !strings.Contains(s, `'[0:v]drawtext=text='\''hi'\''[t0]'`) {
		t.Errorf("filter graph not quoted for replay: %s", s)
	}
}
