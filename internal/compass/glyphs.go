package compass

import "time"

// Frame is the 5x5 binary LED grid; nonzero cells are lit.
type Frame [5][5]byte

// Renderer is the display the core draws on. Show blocks for hold and acts
// as the acquisition loop's natural pacing.
type Renderer interface {
	Show(f Frame, hold time.Duration) error
}

var glyphNorth = Frame{
	{0, 0, 1, 0, 0},
	{0, 1, 1, 1, 0},
	{1, 0, 1, 0, 1},
	{0, 0, 1, 0, 0},
	{0, 0, 1, 0, 0},
}

var glyphNorthEast = Frame{
	{1, 1, 1, 0, 0},
	{1, 1, 0, 0, 0},
	{1, 0, 1, 0, 0},
	{0, 0, 0, 1, 0},
	{0, 0, 0, 0, 1},
}

var glyphEast = Frame{
	{0, 0, 1, 0, 0},
	{0, 1, 0, 0, 0},
	{1, 1, 1, 1, 1},
	{0, 1, 0, 0, 0},
	{0, 0, 1, 0, 0},
}

var glyphSouthEast = Frame{
	{0, 0, 0, 0, 1},
	{0, 0, 0, 1, 0},
	{1, 0, 1, 0, 0},
	{1, 1, 0, 0, 0},
	{1, 1, 1, 0, 0},
}

var glyphSouth = Frame{
	{0, 0, 1, 0, 0},
	{0, 0, 1, 0, 0},
	{1, 0, 1, 0, 1},
	{0, 1, 1, 1, 0},
	{0, 0, 1, 0, 0},
}

var glyphSouthWest = Frame{
	{1, 0, 0, 0, 0},
	{0, 1, 0, 0, 0},
	{0, 0, 1, 0, 1},
	{0, 0, 0, 1, 1},
	{0, 0, 1, 1, 1},
}

var glyphWest = Frame{
	{0, 0, 1, 0, 0},
	{0, 0, 0, 1, 0},
	{1, 1, 1, 1, 1},
	{0, 0, 0, 1, 0},
	{0, 0, 1, 0, 0},
}

var glyphNorthWest = Frame{
	{0, 0, 1, 1, 1},
	{0, 0, 0, 1, 1},
	{0, 0, 1, 0, 1},
	{0, 1, 0, 0, 0},
	{1, 0, 0, 0, 0},
}

// Glyph returns the fixed arrow for a direction.
func Glyph(d Direction) Frame {
	switch d {
	case North:
		return glyphNorth
	case NorthEast:
		return glyphNorthEast
	case East:
		return glyphEast
	case SouthEast:
		return glyphSouthEast
	case South:
		return glyphSouth
	case SouthWest:
		return glyphSouthWest
	case West:
		return glyphWest
	case NorthWest:
		return glyphNorthWest
	}
	return Frame{}
}
