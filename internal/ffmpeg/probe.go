package ffmpeg

import (
	"encoding/json"
	"strconv"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"clipforge/internal/clip"
	"clipforge/internal/pkg/errors"
)

// SourceInfo is the subset of probe output the service cares about.
type SourceInfo struct {
	Duration float64
	Width    int
	Height   int
	HasAudio bool
}

// Prober pre-flights element sources with ffprobe so a job with an
// unreadable source fails before a render is attempted.
type Prober struct{}

// NewProber creates a prober.
func NewProber() *Prober {
	return &Prober{}
}

// CheckSpec probes every element source in the spec and returns what it
// learned, keyed by source URL. The first failure is returned with the
// element id attached.
func (p *Prober) CheckSpec(spec *clip.Spec) (map[string]SourceInfo, error) {
	sources := make(map[string]SourceInfo)
	for i := range spec.Elements {
		e := &spec.Elements[i]
		if e.Source == "" {
			continue
		}
		if _, ok := sources[e.Source]; ok {
			continue
		}
		info, err := p.Probe(e.Source)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeRenderFailed,
				"ffmpeg.probe", "source is not readable").
				WithField("element_id", e.ID).
				WithField("source", e.Source)
		}
		sources[e.Source] = *info
	}
	return sources, nil
}

// Probe inspects a single source.
func (p *Prober) Probe(source string) (*SourceInfo, error) {
	raw, err := ffmpeggo.Probe(source)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, errors.Wrap(err, "ffmpeg.probe", "malformed probe output")
	}

	info := &SourceInfo{}
	if doc.Format.Duration != "" {
		info.Duration, _ = strconv.ParseFloat(doc.Format.Duration, 64)
	}
	for _, s := range doc.Streams {
		switch s.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = s.Width
				info.Height = s.Height
			}
		case "audio":
			info.HasAudio = true
		}
	}
	return info, nil
}
