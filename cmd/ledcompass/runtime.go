package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"ledcompass/internal/compass"
	"ledcompass/internal/config"
	"ledcompass/internal/serialcmd"
	"ledcompass/internal/web"
)

var sleep = time.Sleep

// statusPollInterval paces the busy-wait on the sensor "new data" flags.
// The sensor produces at 10 Hz; 2ms keeps latency negligible without
// hammering the bus.
const statusPollInterval = 2 * time.Millisecond

type sensorDevice interface {
	MagReady() (bool, error)
	ReadMag() (compass.Measurement, error)
	AccelReady() (bool, error)
	ReadAccel() (compass.Measurement, error)
}

type commandPort interface {
	TryReadByte() (byte, bool)
	Printf(format string, args ...any) error
}

type publisher interface {
	PublishMeasurement(line string)
	PublishCalibration(cal compass.Calibration)
}

type noopPublisher struct{}

func (noopPublisher) PublishMeasurement(string)              {}
func (noopPublisher) PublishCalibration(compass.Calibration) {}

// runtime is the acquisition loop: wait for fresh samples, correct, head,
// quantize, render, and service one pending command channel per iteration.
// The active calibration has exactly one writer (this loop) and is swapped
// wholesale on successful recalibration.
type runtime struct {
	cfg      config.Config
	sensor   sensorDevice
	disp     compass.Renderer
	port     commandPort
	pub      publisher
	status   *web.Status
	headings *web.HeadingBroadcaster

	calibration compass.Calibration
	lineBuf     serialcmd.LineBuffer

	webCalibrate atomic.Bool

	consecutiveFaults int
}

func newRuntime(cfg config.Config, sensor sensorDevice, disp compass.Renderer, port commandPort, pub publisher) *runtime {
	cal := compass.DefaultCalibration
	if d := cfg.Calibration.Default; d != nil {
		cal = compass.Calibration{
			Center: compass.Measurement{X: d.Center.X, Y: d.Center.Y, Z: d.Center.Z},
			Scale:  compass.Measurement{X: d.Scale.X, Y: d.Scale.Y, Z: d.Scale.Z},
			Radius: d.Radius,
		}
	}
	if pub == nil {
		pub = noopPublisher{}
	}
	return &runtime{
		cfg:         cfg,
		sensor:      sensor,
		disp:        disp,
		port:        port,
		pub:         pub,
		status:      web.NewStatus(cal),
		headings:    web.NewHeadingBroadcaster(),
		calibration: cal,
	}
}

// requestCalibration queues a recalibration for the next loop iteration.
// Safe to call from other goroutines (the web handler).
func (r *runtime) requestCalibration() {
	r.webCalibrate.Store(true)
}

func (r *runtime) run(ctx context.Context) error {
	log.Printf("active calibration: %s", r.calibration)
	if err := r.port.Printf("%s\r\n", r.calibration); err != nil {
		log.Printf("serial write failed: %v", err)
	}

	for ctx.Err() == nil {
		if err := r.step(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
	}
	return nil
}

// step runs one loop iteration. A sensor fault is tolerated for a bounded
// number of consecutive iterations before it becomes fatal.
func (r *runtime) step(ctx context.Context) error {
	mag, err := r.readFresh(ctx, r.sensor.MagReady, r.sensor.ReadMag)
	if err != nil {
		return r.fault(err)
	}
	corrected := r.calibration.Apply(mag)

	accel, err := r.readFresh(ctx, r.sensor.AccelReady, r.sensor.ReadAccel)
	if err != nil {
		return r.fault(err)
	}
	r.consecutiveFaults = 0
	r.status.SetLastError(nil)

	line := fmt.Sprintf("Measurement: %.2f, %.2f, %.2f, %.2f, %.2f, %.2f",
		float64(corrected.X), float64(corrected.Y), float64(corrected.Z),
		float64(accel.X), float64(accel.Y), float64(accel.Z))
	if err := r.port.Printf("%s\r\n", line); err != nil {
		// A mute host should not stop the compass.
		log.Printf("serial write failed: %v", err)
	}
	r.pub.PublishMeasurement(line)

	r.drainSerial(ctx)
	if r.webCalibrate.Swap(false) {
		r.recalibrate(ctx)
	}

	theta := math.Atan2(float64(corrected.Y), float64(corrected.X))
	dir := compass.DirectionFromTheta(float32(theta))
	r.status.SetHeading(theta, dir)
	r.headings.Publish(web.HeadingSample{
		ThetaRad:  theta,
		Direction: dir.String(),
		TimeUTC:   time.Now().UTC().Format(time.RFC3339Nano),
	})

	if err := r.disp.Show(compass.Glyph(dir), r.cfg.Display.Hold); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// readFresh busy-polls the "new data" flag, then reads. ctx cancellation
// unblocks the poll.
func (r *runtime) readFresh(ctx context.Context, ready func() (bool, error), read func() (compass.Measurement, error)) (compass.Measurement, error) {
	for {
		ok, err := ready()
		if err != nil {
			return compass.Measurement{}, err
		}
		if ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return compass.Measurement{}, err
		}
		sleep(statusPollInterval)
	}
	return read()
}

func (r *runtime) fault(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	r.consecutiveFaults++
	r.status.SetLastError(err)
	log.Printf("sensor fault (%d/%d): %v", r.consecutiveFaults, r.cfg.Sensor.MaxConsecutiveFaults, err)
	if r.consecutiveFaults >= r.cfg.Sensor.MaxConsecutiveFaults {
		return fmt.Errorf("sensor failed %d times in a row: %w", r.consecutiveFaults, err)
	}
	return nil
}

// drainSerial consumes all pending host bytes, servicing at most the
// commands completed by them.
func (r *runtime) drainSerial(ctx context.Context) {
	for {
		b, ok := r.port.TryReadByte()
		if !ok {
			return
		}
		line, done := r.lineBuf.Feed(b)
		if !done {
			continue
		}
		log.Printf("received: %q", line)
		switch serialcmd.Parse(line) {
		case serialcmd.CmdCalibrate:
			r.recalibrate(ctx)
		default:
			log.Printf("unknown command: %q", line)
		}
	}
}

// recalibrate runs the interactive procedure and swaps in the result. On
// failure the previous calibration stays active.
func (r *runtime) recalibrate(ctx context.Context) {
	log.Printf("manual calibration requested")
	calCtx, cancel := context.WithTimeout(ctx, r.cfg.Calibration.Timeout)
	defer cancel()

	cal, err := compass.Calibrate(calCtx, r.sensor, r.disp, compass.CalibrateConfig{
		Samples:      r.cfg.Calibration.Samples,
		MinHalfRange: r.cfg.Calibration.MinHalfRange,
	})
	if err != nil {
		log.Printf("calibration failed, keeping previous: %v", err)
		r.status.SetLastError(err)
		if werr := r.port.Printf("calibration failed: %v\r\n", err); werr != nil {
			log.Printf("serial write failed: %v", werr)
		}
		return
	}

	r.calibration = cal
	r.status.SetCalibration(cal)
	r.pub.PublishCalibration(cal)
	log.Printf("new calibration: %s", cal)
	if err := r.port.Printf("%s\r\n", cal); err != nil {
		log.Printf("serial write failed: %v", err)
	}
}
