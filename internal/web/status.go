package web

import (
	"sync"
	"time"

	"ledcompass/internal/compass"
)

// Status aggregates what the acquisition loop is doing for /api/status.
// The loop is the only writer; any number of HTTP readers take snapshots.
type Status struct {
	mu sync.RWMutex

	started     time.Time
	direction   compass.Direction
	headingRad  float64
	haveHeading bool
	calibration compass.Calibration
	iterations  uint64
	calibCount  uint64
	lastError   string
}

type CalibrationSnapshot struct {
	CenterX int32 `json:"center_x"`
	CenterY int32 `json:"center_y"`
	CenterZ int32 `json:"center_z"`
	ScaleX  int32 `json:"scale_x"`
	ScaleY  int32 `json:"scale_y"`
	ScaleZ  int32 `json:"scale_z"`
	Radius  int32 `json:"radius"`
}

type Snapshot struct {
	StartedUTC    string              `json:"started_utc"`
	UptimeSeconds float64             `json:"uptime_seconds"`
	Direction     string              `json:"direction,omitempty"`
	HeadingRad    float64             `json:"heading_rad"`
	HeadingValid  bool                `json:"heading_valid"`
	Calibration   CalibrationSnapshot `json:"calibration"`
	Iterations    uint64              `json:"iterations"`
	Calibrations  uint64              `json:"calibrations"`
	LastError     string              `json:"last_error,omitempty"`
}

func NewStatus(cal compass.Calibration) *Status {
	return &Status{started: time.Now().UTC(), calibration: cal}
}

func (s *Status) SetHeading(thetaRad float64, dir compass.Direction) {
	s.mu.Lock()
	s.headingRad = thetaRad
	s.direction = dir
	s.haveHeading = true
	s.iterations++
	s.mu.Unlock()
}

func (s *Status) SetCalibration(cal compass.Calibration) {
	s.mu.Lock()
	s.calibration = cal
	s.calibCount++
	s.mu.Unlock()
}

func (s *Status) SetLastError(err error) {
	s.mu.Lock()
	if err == nil {
		s.lastError = ""
	} else {
		s.lastError = err.Error()
	}
	s.mu.Unlock()
}

func (s *Status) Snapshot(nowUTC time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		StartedUTC:    s.started.Format(time.RFC3339),
		UptimeSeconds: nowUTC.Sub(s.started).Seconds(),
		HeadingRad:    s.headingRad,
		HeadingValid:  s.haveHeading,
		Calibration: CalibrationSnapshot{
			CenterX: s.calibration.Center.X,
			CenterY: s.calibration.Center.Y,
			CenterZ: s.calibration.Center.Z,
			ScaleX:  s.calibration.Scale.X,
			ScaleY:  s.calibration.Scale.Y,
			ScaleZ:  s.calibration.Scale.Z,
			Radius:  s.calibration.Radius,
		},
		Iterations:   s.iterations,
		Calibrations: s.calibCount,
		LastError:    s.lastError,
	}
	if s.haveHeading {
		snap.Direction = s.direction.String()
	}
	return snap
}
