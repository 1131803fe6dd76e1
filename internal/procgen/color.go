package procgen

import (
	"fmt"
	"math"

	"github.com/talgya/planeforge/internal/entropy"
)

// Hue window kept clear around the base hue, in degrees.
const (
	hueSpan    = 320.0
	hueExclude = 20.0
)

// RGB is a color with channels in [0, 1].
type RGB struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

// Color is an output color with 0–255 channels.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Scale multiplies every channel by f, clamped to [0, 1].
func (c RGB) Scale(f float64) RGB {
	return RGB{R: clamp01(c.R * f), G: clamp01(c.G * f), B: clamp01(c.B * f)}
}

// GenerateColor picks a color whose hue avoids the ±20° window around
// base's hue, keeping base's saturation and value. Exactly one draw.
// The draw spans the 320° arc starting just above the window, wrapping
// through 0°, so bases near red are excluded on both sides.
func GenerateColor(base RGB, src entropy.Source) Color {
	baseHue, sat, val := toHSV(base)

	hue := math.Mod(baseHue+hueExclude+src.Float()*hueSpan, 360)

	return toColor(fromHSV(hue, sat, val))
}

// toHSV returns hue in [0, 360), saturation and value in [0, 1].
// A gray input (zero chroma) has hue 0.
func toHSV(c RGB) (h, s, v float64) {
	maxC := math.Max(c.R, math.Max(c.G, c.B))
	minC := math.Min(c.R, math.Min(c.G, c.B))
	chroma := maxC - minC

	v = maxC
	if maxC > 0 {
		s = chroma / maxC
	}
	if chroma == 0 {
		return 0, s, v
	}

	switch maxC {
	case c.R:
		h = math.Mod((c.G-c.B)/chroma, 6)
	case c.G:
		h = (c.B-c.R)/chroma + 2
	default:
		h = (c.R-c.G)/chroma + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h, s, v
}

func fromHSV(h, s, v float64) RGB {
	chroma := v * s
	hp := h / 60
	x := chroma * (1 - math.Abs(math.Mod(hp, 2)-1))
	m := v - chroma

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = chroma, x, 0
	case hp < 2:
		r, g, b = x, chroma, 0
	case hp < 3:
		r, g, b = 0, chroma, x
	case hp < 4:
		r, g, b = 0, x, chroma
	case hp < 5:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}
	return RGB{R: r + m, G: g + m, B: b + m}
}

func toColor(c RGB) Color {
	return Color{R: channel(c.R), G: channel(c.G), B: channel(c.B)}
}

func channel(f float64) uint8 {
	return uint8(math.Round(clamp01(f) * 255))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
