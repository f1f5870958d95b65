// Package indicator drives the Bluetooth LE color bulb that shows the
// aggregate build status.
package indicator

import "strings"

// Color is one of the fixed bulb colors.
type Color int

const (
	Off Color = iota
	Blue
	Yellow
	Green
	Red
	Pink
)

// Brightness of a lit channel.
const level = 26

var rgb = map[Color][3]byte{
	Off:    {0, 0, 0},
	Blue:   {0, 0, level},
	Yellow: {level, level, 0},
	Green:  {0, level, 0},
	Red:    {level, 0, 0},
	Pink:   {level, 0, level},
}

var names = map[Color]string{
	Off:    "off",
	Blue:   "blue",
	Yellow: "yellow",
	Green:  "green",
	Red:    "red",
	Pink:   "pink",
}

// RGB returns the channel values written to the bulb.
func (c Color) RGB() [3]byte {
	return rgb[c]
}

func (c Color) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "unknown"
}

// ColorFor maps a build state to a color. Pink flags a state the light does
// not know about.
func ColorFor(state string) Color {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "pending":
		return Yellow
	case "failure", "error", "failed":
		return Red
	case "success":
		return Green
	default:
		return Pink
	}
}
