// Package side names the two chess colors shared by the clock, rules and session packages.
package side

import "strings"

// Color identifies chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other color. Unknown values map to the empty color.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return ""
	}
}

// Valid reports whether c is White or Black.
func (c Color) Valid() bool { return c == White || c == Black }

func (c Color) String() string { return string(c) }

// Parse accepts "white"/"w" and "black"/"b" in any case.
func Parse(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return "", false
	}
}
