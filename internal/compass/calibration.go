package compass

import "fmt"

// scaleBase is the fixed-point base the per-axis scale factors are derived
// in: a scale of exactly scaleBase means the axis half-range already matches
// the reference radius. Division by scaleBase is intentionally NOT part of
// Apply; the heading math only cares about axis-to-axis ratios.
const scaleBase = 1000

// Calibration corrects hard-iron bias (Center) and per-axis soft-iron
// sensitivity distortion (Scale) of the magnetometer. Radius is the
// reference magnitude the calibration procedure normalized the scale
// factors toward; it plays no role in Apply.
//
// A Calibration is immutable once constructed. The acquisition loop swaps
// the whole value on recalibration, never individual fields.
type Calibration struct {
	Center Measurement
	Scale  Measurement
	Radius int32
}

// DefaultCalibration is the boot-time record, measured on the reference rig.
var DefaultCalibration = Calibration{
	Center: Measurement{X: 20962, Y: 34322, Z: -23924},
	Scale:  Measurement{X: 1203, Y: 1177, Z: 1133},
	Radius: 48098,
}

// Apply corrects a raw magnetometer reading: per axis, subtract the bias
// center and multiply by the axis scale factor. Each output axis depends
// only on the matching input axis. Scale factors are always positive (the
// calibration procedure clamps degenerate axes), so Apply is total.
func (c Calibration) Apply(raw Measurement) Measurement {
	return Measurement{
		X: (raw.X - c.Center.X) * c.Scale.X,
		Y: (raw.Y - c.Center.Y) * c.Scale.Y,
		Z: (raw.Z - c.Center.Z) * c.Scale.Z,
	}
}

// Valid reports whether the record can safely be applied.
func (c Calibration) Valid() error {
	if c.Scale.X <= 0 || c.Scale.Y <= 0 || c.Scale.Z <= 0 {
		return fmt.Errorf("compass: calibration scale must be positive, got %s", c.Scale)
	}
	if c.Radius <= 0 {
		return fmt.Errorf("compass: calibration radius must be positive, got %d", c.Radius)
	}
	return nil
}

func (c Calibration) String() string {
	return fmt.Sprintf("center: %s, scale: %s, radius: %d", c.Center, c.Scale, c.Radius)
}
