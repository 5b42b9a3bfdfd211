package compass

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeMag struct {
	samples []Measurement
	i       int

	// notReadyEvery inserts a "no new data" poll before each sample.
	notReadyEvery bool
	ready         bool

	readyErr error
	readErr  error
}

func (f *fakeMag) MagReady() (bool, error) {
	if f.readyErr != nil {
		return false, f.readyErr
	}
	if f.notReadyEvery && !f.ready {
		f.ready = true
		return false, nil
	}
	return true, nil
}

func (f *fakeMag) ReadMag() (Measurement, error) {
	if f.readErr != nil {
		return Measurement{}, f.readErr
	}
	f.ready = false
	m := f.samples[f.i%len(f.samples)]
	f.i++
	return m, nil
}

type fakeRenderer struct {
	frames []Frame
	err    error
}

func (f *fakeRenderer) Show(fr Frame, hold time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, fr)
	return nil
}

func quickCfg(samples int) CalibrateConfig {
	return CalibrateConfig{
		Samples:      samples,
		MinHalfRange: 1,
		PollInterval: time.Nanosecond,
		FeedbackHold: time.Nanosecond,
	}
}

func TestCalibrate_SymmetricOscillationRecoversCenter(t *testing.T) {
	// Raw samples oscillate symmetrically around a known center with a known
	// per-axis extent. The derived center must be exact.
	center := Measurement{X: 200, Y: -300, Z: 50}
	ext := Measurement{X: 100, Y: 50, Z: 25}
	f := &fakeMag{samples: []Measurement{
		{X: center.X + ext.X, Y: center.Y, Z: center.Z},
		{X: center.X - ext.X, Y: center.Y, Z: center.Z},
		{X: center.X, Y: center.Y + ext.Y, Z: center.Z},
		{X: center.X, Y: center.Y - ext.Y, Z: center.Z},
		{X: center.X, Y: center.Y, Z: center.Z + ext.Z},
		{X: center.X, Y: center.Y, Z: center.Z - ext.Z},
	}}
	cal, err := Calibrate(context.Background(), f, &fakeRenderer{}, quickCfg(60))
	if err != nil {
		t.Fatalf("Calibrate() error: %v", err)
	}
	if cal.Center != center {
		t.Fatalf("center=%s want %s", cal.Center, center)
	}
	if err := cal.Valid(); err != nil {
		t.Fatalf("derived calibration invalid: %v", err)
	}
	// The x axis swings the widest, so it needs the smallest correction.
	if !(cal.Scale.X < cal.Scale.Y && cal.Scale.Y < cal.Scale.Z) {
		t.Fatalf("scale ordering wrong: %s", cal.Scale)
	}
	// Radius is the largest center-relative magnitude seen.
	if cal.Radius != ext.X {
		t.Fatalf("radius=%d want %d", cal.Radius, ext.X)
	}
}

func TestCalibrate_DegenerateAxisClamped(t *testing.T) {
	// Z never moves; its scale must still come out positive and finite.
	f := &fakeMag{samples: []Measurement{
		{X: 100, Y: 200, Z: 5},
		{X: -100, Y: -200, Z: 5},
	}}
	cal, err := Calibrate(context.Background(), f, &fakeRenderer{}, quickCfg(20))
	if err != nil {
		t.Fatalf("Calibrate() error: %v", err)
	}
	if cal.Scale.Z <= 0 {
		t.Fatalf("degenerate axis scale=%d, want > 0", cal.Scale.Z)
	}
	if cal.Center.Z != 5 {
		t.Fatalf("degenerate axis center=%d want 5", cal.Center.Z)
	}
}

func TestCalibrate_PollsUntilReady(t *testing.T) {
	old := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = old })

	f := &fakeMag{samples: []Measurement{{X: 1, Y: 2, Z: 3}, {X: -1, Y: -2, Z: -3}}, notReadyEvery: true}
	if _, err := Calibrate(context.Background(), f, &fakeRenderer{}, quickCfg(10)); err != nil {
		t.Fatalf("Calibrate() error: %v", err)
	}
	if f.i != 10 {
		t.Fatalf("reads=%d want 10", f.i)
	}
}

func TestCalibrate_ShowsProgressFrames(t *testing.T) {
	f := &fakeMag{samples: []Measurement{{X: 10, Y: 20, Z: 30}, {X: -10, Y: -20, Z: -30}}}
	r := &fakeRenderer{}
	if _, err := Calibrate(context.Background(), f, r, quickCfg(25)); err != nil {
		t.Fatalf("Calibrate() error: %v", err)
	}
	if len(r.frames) == 0 {
		t.Fatalf("expected progress frames")
	}
	last := r.frames[len(r.frames)-1]
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			if last[row][col] == 0 {
				t.Fatalf("final progress frame cell (%d,%d) unlit", row, col)
			}
		}
	}
}

func TestCalibrate_ReadErrorAborts(t *testing.T) {
	wantErr := errors.New("bus fault")
	f := &fakeMag{readErr: wantErr}
	_, err := Calibrate(context.Background(), f, &fakeRenderer{}, quickCfg(10))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err=%v want wrapped %v", err, wantErr)
	}
}

func TestCalibrate_StatusErrorAborts(t *testing.T) {
	wantErr := errors.New("bus fault")
	f := &fakeMag{readyErr: wantErr}
	_, err := Calibrate(context.Background(), f, &fakeRenderer{}, quickCfg(10))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err=%v want wrapped %v", err, wantErr)
	}
}

func TestCalibrate_ContextCancelUnblocks(t *testing.T) {
	old := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = old })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Sensor that never reports new data: only ctx can end the wait.
	_, err := Calibrate(ctx, stuckMag{}, &fakeRenderer{}, quickCfg(10))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

type stuckMag struct{}

func (stuckMag) MagReady() (bool, error)       { return false, nil }
func (stuckMag) ReadMag() (Measurement, error) { return Measurement{}, nil }
