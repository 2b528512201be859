package model

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// IsHexColor reports whether s is a #RRGGBB color.
func IsHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// ColorKey is the comparison form of a fill color. The color picker and
// older files disagree on case, so colors compare case-insensitively.
func ColorKey(c string) string {
	return strings.ToLower(c)
}

// SameColor reports whether a and b name the same fill color.
func SameColor(a, b string) bool {
	return ColorKey(a) == ColorKey(b)
}

// ParseHexColor converts a #RRGGBB color to an opaque RGBA value.
func ParseHexColor(s string) (color.RGBA, error) {
	if !IsHexColor(s) {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
