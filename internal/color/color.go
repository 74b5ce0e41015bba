// Package color parses hex colors and blends color ranges.
package color

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("malformed hex color")

// FormatError reports a color string that is not six hex digits.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %q", ErrFormat, e.Input)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// RGB is a color with 0-255 channels.
type RGB struct {
	R, G, B int
}

// HexToRGB parses "#rrggbb" or "rrggbb", ignoring case.
func HexToRGB(hex string) (RGB, error) {
	norm := "#" + strings.ToLower(strings.TrimPrefix(hex, "#"))
	c, err := colorful.Hex(norm)
	if err != nil {
		return RGB{}, &FormatError{Input: hex}
	}
	// colorful also takes "#rgb" and lenient scanf input; only the
	// canonical six digit form round-trips.
	if c.Hex() != norm {
		return RGB{}, &FormatError{Input: hex}
	}
	r, g, b := c.RGB255()
	return RGB{R: int(r), G: int(g), B: int(b)}, nil
}

// RGBToHex formats c as "#rrggbb". Channels are clamped to 0-255.
func RGBToHex(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", clampChannel(c.R), clampChannel(c.G), clampChannel(c.B))
}

// Interpolate blends left towards right by t, rounding each channel
// independently. t is not clamped, so values outside [0,1] extrapolate.
func Interpolate(left, right string, t float64) (string, error) {
	l, err := HexToRGB(left)
	if err != nil {
		return "", err
	}
	r, err := HexToRGB(right)
	if err != nil {
		return "", err
	}
	mix := func(a, b int) int {
		return int(math.Floor(float64(a) + t*float64(b-a) + 0.5))
	}
	return RGBToHex(RGB{R: mix(l.R, r.R), G: mix(l.G, r.G), B: mix(l.B, r.B)}), nil
}

func clampChannel(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return v
	}
}
