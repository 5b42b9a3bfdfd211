package compass

import "math"

// Direction is one of the 8 discrete compass directions. The set is closed;
// glyph lookup dispatches on it directly.
type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case NorthEast:
		return "NE"
	case East:
		return "E"
	case SouthEast:
		return "SE"
	case South:
		return "S"
	case SouthWest:
		return "SW"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	}
	return "?"
}

const pi8 = float32(math.Pi / 8)

// DirectionFromTheta quantizes a heading angle into one of the 8 compass
// directions. theta is atan2(y, x) of the corrected field, so 0 points East
// and the range is (-pi, pi]. Each 45-degree sector is half-open
// [edge, edge+pi/4); a value exactly on an edge resolves to the
// counter-clockwise-next sector. Both pi and -pi land in West.
//
// theta must not be NaN.
func DirectionFromTheta(theta float32) Direction {
	switch {
	case theta < -7*pi8:
		return West
	case theta < -5*pi8:
		return SouthWest
	case theta < -3*pi8:
		return South
	case theta < -pi8:
		return SouthEast
	case theta < pi8:
		return East
	case theta < 3*pi8:
		return NorthEast
	case theta < 5*pi8:
		return North
	case theta < 7*pi8:
		return NorthWest
	default:
		return West
	}
}
