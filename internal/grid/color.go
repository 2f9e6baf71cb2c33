package grid

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	Black = colorful.Color{R: 0, G: 0, B: 0}
	White = colorful.Color{R: 1, G: 1, B: 1}
)

// ParseColor parses a "#rrggbb" color
func ParseColor(s string) (colorful.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("parsing color %q: %w", s, err)
	}
	return c, nil
}

// Dimmed returns c blended halfway towards black
func Dimmed(c colorful.Color) colorful.Color {
	return c.BlendRgb(Black, 0.5).Clamped()
}
