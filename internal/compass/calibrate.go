package compass

import (
	"context"
	"fmt"
	"math"
	"time"
)

var sleep = time.Sleep

// MagnetometerSource is the live sensor access the calibration procedure
// needs: a "new data" status poll plus an on-demand raw read.
type MagnetometerSource interface {
	MagReady() (bool, error)
	ReadMag() (Measurement, error)
}

// CalibrateConfig bounds the interactive procedure.
type CalibrateConfig struct {
	// Samples is the fixed number of magnetometer readings collected.
	Samples int
	// MinHalfRange clamps a degenerate axis (no swing during the rotation)
	// so the derived scale is always positive and finite.
	MinHalfRange int32
	// PollInterval paces the busy-wait on the "new data" flag.
	PollInterval time.Duration
	// FeedbackHold is how long each progress frame stays on the display.
	FeedbackHold time.Duration
}

func (c *CalibrateConfig) defaults() {
	if c.Samples <= 0 {
		c.Samples = 200
	}
	if c.MinHalfRange <= 0 {
		c.MinHalfRange = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Millisecond
	}
	if c.FeedbackHold <= 0 {
		c.FeedbackHold = 20 * time.Millisecond
	}
}

// Calibrate derives a fresh Calibration from live sensor motion. It blocks
// until the configured sample count has been collected, polling the
// magnetometer status flag and lighting display cells as progress feedback
// so the operator knows to keep rotating the device.
//
// Any sensor read failure aborts the whole attempt; the caller keeps its
// previous calibration. ctx bounds the procedure if the sensor stops
// producing data (a deadline on ctx is the caller's safety net).
func Calibrate(ctx context.Context, mag MagnetometerSource, disp Renderer, cfg CalibrateConfig) (Calibration, error) {
	cfg.defaults()

	var (
		samples    = make([]Measurement, 0, cfg.Samples)
		minV       = Measurement{X: math.MaxInt32, Y: math.MaxInt32, Z: math.MaxInt32}
		maxV       = Measurement{X: math.MinInt32, Y: math.MinInt32, Z: math.MinInt32}
		shownCells = -1
	)

	for len(samples) < cfg.Samples {
		if err := awaitMagReady(ctx, mag, cfg.PollInterval); err != nil {
			return Calibration{}, err
		}
		m, err := mag.ReadMag()
		if err != nil {
			return Calibration{}, fmt.Errorf("compass: calibration read failed: %w", err)
		}
		samples = append(samples, m)

		minV.X, maxV.X = min(minV.X, m.X), max(maxV.X, m.X)
		minV.Y, maxV.Y = min(minV.Y, m.Y), max(maxV.Y, m.Y)
		minV.Z, maxV.Z = min(minV.Z, m.Z), max(maxV.Z, m.Z)

		// Fill the grid cell by cell as sampling progresses.
		if cells := len(samples) * 25 / cfg.Samples; cells != shownCells {
			shownCells = cells
			if err := disp.Show(progressFrame(cells), cfg.FeedbackHold); err != nil {
				return Calibration{}, fmt.Errorf("compass: calibration feedback failed: %w", err)
			}
		}
	}

	return deriveCalibration(samples, minV, maxV, cfg.MinHalfRange), nil
}

func awaitMagReady(ctx context.Context, mag MagnetometerSource, poll time.Duration) error {
	for {
		ready, err := mag.MagReady()
		if err != nil {
			return fmt.Errorf("compass: calibration status poll failed: %w", err)
		}
		if ready {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("compass: calibration aborted: %w", err)
		}
		sleep(poll)
	}
}

// deriveCalibration turns the observed per-axis extents into a record:
// the center is the midpoint of (min, max); the radius is the largest
// center-relative vector magnitude seen; each scale normalizes the axis
// half-range toward the radius in scaleBase units, so axes with a smaller
// swing get a proportionally larger multiplicative correction.
func deriveCalibration(samples []Measurement, minV, maxV Measurement, minHalf int32) Calibration {
	center := Measurement{
		X: int32((int64(minV.X) + int64(maxV.X)) / 2),
		Y: int32((int64(minV.Y) + int64(maxV.Y)) / 2),
		Z: int32((int64(minV.Z) + int64(maxV.Z)) / 2),
	}

	halfX := clampHalfRange(maxV.X, minV.X, minHalf)
	halfY := clampHalfRange(maxV.Y, minV.Y, minHalf)
	halfZ := clampHalfRange(maxV.Z, minV.Z, minHalf)

	var radius int64
	for _, s := range samples {
		dx := int64(s.X) - int64(center.X)
		dy := int64(s.Y) - int64(center.Y)
		dz := int64(s.Z) - int64(center.Z)
		if r := int64(math.Sqrt(float64(dx*dx + dy*dy + dz*dz))); r > radius {
			radius = r
		}
	}
	if radius < int64(minHalf) {
		radius = int64(minHalf)
	}

	return Calibration{
		Center: center,
		Scale: Measurement{
			X: scaleFor(radius, halfX),
			Y: scaleFor(radius, halfY),
			Z: scaleFor(radius, halfZ),
		},
		Radius: int32(radius),
	}
}

func clampHalfRange(maxVal, minVal, minHalf int32) int64 {
	half := (int64(maxVal) - int64(minVal)) / 2
	if half < int64(minHalf) {
		half = int64(minHalf)
	}
	return half
}

func scaleFor(radius, halfRange int64) int32 {
	s := radius * scaleBase / halfRange
	if s < 1 {
		s = 1
	}
	return int32(s)
}

func progressFrame(cells int) Frame {
	var f Frame
	if cells > 25 {
		cells = 25
	}
	for i := 0; i < cells; i++ {
		f[i/5][i%5] = 1
	}
	return f
}
