package layout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedColor is returned for colors that are not 3- or 6-digit hex.
var ErrMalformedColor = errors.New("malformed hex color")

// MaxContrast is the ratio between black and white, the highest possible.
const MaxContrast = 21.0

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// ParseHex parses "#abc", "abc", "#aabbcc" or "aabbcc".
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrMalformedColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrMalformedColor, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Luminance is the WCAG 2.0 relative luminance.
func (c RGB) Luminance() float64 {
	return 0.2126*channel(c.R) + 0.7152*channel(c.G) + 0.0722*channel(c.B)
}

func channel(v uint8) float64 {
	c := float64(v) / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// ContrastRatio returns the WCAG 2.0 contrast ratio of two hex colors, from 1
// to 21. When either color is malformed it returns MaxContrast together with
// the parse error, so a bad color never produces a violation.
func ContrastRatio(fg, bg string) (float64, error) {
	a, err := ParseHex(fg)
	if err != nil {
		return MaxContrast, err
	}
	b, err := ParseHex(bg)
	if err != nil {
		return MaxContrast, err
	}
	l1, l2 := a.Luminance(), b.Luminance()
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05), nil
}

// colorIn reports whether color equals one of allowed after hex normalization.
func colorIn(color string, allowed []string) bool {
	c, err := ParseHex(color)
	if err != nil {
		return false
	}
	for _, a := range allowed {
		if ac, err := ParseHex(a); err == nil && ac == c {
			return true
		}
	}
	return false
}
