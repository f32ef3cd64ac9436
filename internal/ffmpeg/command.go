// Package ffmpeg turns a resolved clip spec into an ffmpeg invocation.
// Building is pure: the same spec always yields the same argument list,
// and nothing here touches the network or spawns a process.
package ffmpeg

import (
	"strconv"
	"strings"
)

// CodecSettings pins the encoder parameters for one container format.
type CodecSettings struct {
	VideoCodec    string
	AudioCodec    string
	Preset        string
	PixelFormat   string
	AudioBitrate  string
	FileExtension string
}

var codecPresets = map[string]CodecSettings{
	"mp4": {
		VideoCodec:    "libx264",
		AudioCodec:    "aac",
		Preset:        "medium",
		PixelFormat:   "yuv420p",
		AudioBitrate:  "128k",
		FileExtension: ".mp4",
	},
	"webm": {
		VideoCodec:    "libvpx-vp9",
		AudioCodec:    "libopus",
		PixelFormat:   "yuv420p",
		AudioBitrate:  "128k",
		FileExtension: ".webm",
	},
}

// GetCodecSettings returns the encoder parameters for a container format,
// defaulting to mp4 for unknown or empty formats.
func GetCodecSettings(format string) CodecSettings {
	if s, ok := codecPresets[format]; ok {
		return s
	}
	return codecPresets["mp4"]
}

// Input is one -i source. Options precede the -i flag (per-input options
// such as -f lavfi or -loop 1).
type Input struct {
	Options []string
	URL     string
}

// Command is an assembled ffmpeg invocation. Args is the stable contract
// between the builder and the process runner.
type Command struct {
	Inputs      []Input
	FilterGraph string
	VideoMap    string
	AudioMap    string
	Codec       CodecSettings
	Duration    float64
	OutputPath  string
}

// Args returns the full argument list, excluding the binary name.
func (c *Command) Args() []string {
	args := []string{"-y"}

	for _, in := range c.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.URL)
	}

	if c.FilterGraph != "" {
		args = append(args, "-filter_complex", c.FilterGraph)
	}
	if c.VideoMap != "" {
		args = append(args, "-map", c.VideoMap)
	}
	if c.AudioMap != "" {
		args = append(args, "-map", c.AudioMap)
	}

	args = append(args,
		"-t", formatFloat(c.Duration),
		"-c:v", c.Codec.VideoCodec,
	)
	if c.Codec.Preset != "" {
		args = append(args, "-preset", c.Codec.Preset)
	}
	args = append(args, "-pix_fmt", c.Codec.PixelFormat)

	if c.AudioMap != "" {
		args = append(args, "-c:a", c.Codec.AudioCodec, "-b:a", c.Codec.AudioBitrate)
	}

	args = append(args, c.OutputPath)
	return args
}

// String renders the invocation for job logs. Arguments with shell
// metacharacters are single-quoted so the line can be replayed by hand.
func (c *Command) String() string {
	parts := []string{"ffmpeg"}
	for _, a := range c.Args() {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t'\"\\$&|;<>()*?[]{}~#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// formatFloat prints seconds without a trailing ".0" for whole values,
// matching how timeline values appear in filter expressions.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
