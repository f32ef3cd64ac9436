package template

import (
	"clipforge/internal/clip"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }
func boolPtr(b bool) *bool        { return &b }
func coordPtr(c clip.Coord) *clip.Coord {
	return &c
}

// builtins are templates compiled into the binary. Files in the template
// directory with the same id take precedence.
var builtins = map[string]*Template{
	"multi_element_reel": {
		ID:          "multi_element_reel",
		Name:        "Multi Element Reel",
		Description: "Vertical reel with layered video, imagery and captions",
		Output: clip.Output{
			Resolution:      clip.Resolution{Width: 1080, Height: 1920},
			FrameRate:       30,
			Format:          "mp4",
			Duration:        10,
			BackgroundColor: "#000000",
		},
		Defaults: map[clip.ElementType]Fragment{
			clip.TypeVideo: {
				Transform: &clip.Transform{
					Scale: floatPtr(1.5),
					Position: &clip.Position{
						X: coordPtr(clip.Px(0)),
						Y: coordPtr(clip.Px(0)),
					},
					Opacity: floatPtr(1.0),
				},
				Audio: boolPtr(true),
			},
			clip.TypeImage: {
				Transform: &clip.Transform{
					Scale: floatPtr(1.0),
					Position: &clip.Position{
						X: coordPtr(clip.Center()),
						Y: coordPtr(clip.Center()),
					},
					Opacity: floatPtr(1.0),
				},
			},
			clip.TypeText: {
				Transform: &clip.Transform{
					Position: &clip.Position{
						X: coordPtr(clip.Center()),
						Y: coordPtr(clip.Px(200)),
					},
					Opacity: floatPtr(1.0),
				},
				Style: &clip.Style{
					FontFamily:      "Arial",
					FontSize:        intPtr(48),
					Color:           "white",
					BackgroundColor: "rgba(0,0,0,0.3)",
					Alignment:       "center",
				},
			},
			clip.TypeAudio: {
				Volume: floatPtr(1.0),
			},
		},
	},
	"landscape_promo": {
		ID:          "landscape_promo",
		Name:        "Landscape Promo",
		Description: "16:9 promo clip with centered title",
		Output: clip.Output{
			Resolution:      clip.Resolution{Width: 1920, Height: 1080},
			FrameRate:       30,
			Format:          "mp4",
			Duration:        10,
			BackgroundColor: "#101010",
		},
		Defaults: map[clip.ElementType]Fragment{
			clip.TypeVideo: {
				Transform: &clip.Transform{
					Scale: floatPtr(1.0),
					Position: &clip.Position{
						X: coordPtr(clip.Center()),
						Y: coordPtr(clip.Center()),
					},
					Opacity: floatPtr(1.0),
				},
				Audio: boolPtr(true),
			},
			clip.TypeText: {
				Transform: &clip.Transform{
					Position: &clip.Position{
						X: coordPtr(clip.Center()),
						Y: coordPtr(clip.Frac(0.75)),
					},
					Opacity: floatPtr(1.0),
				},
				Style: &clip.Style{
					FontFamily: "Arial",
					FontSize:   intPtr(72),
					Color:      "white",
					Alignment:  "center",
				},
			},
			clip.TypeAudio: {
				Volume: floatPtr(1.0),
			},
		},
	},
}
