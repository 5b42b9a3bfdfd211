// Package display renders 5x5 compass frames. The matrix backend drives a
// real 5x5 LED grid over GPIO; the oled backend draws on an SSD1306 panel;
// the console backend writes frames to the log for bench work.
package display

import (
	"fmt"
	"time"

	"ledcompass/internal/compass"
)

var sleep = time.Sleep

// Display is a closeable Renderer. Show blocks for the hold duration; the
// acquisition loop relies on that for its pacing.
type Display interface {
	compass.Renderer
	Close() error
}

type Config struct {
	Backend string
	Matrix  MatrixConfig
	OLED    OLEDConfig
}

func New(cfg Config) (Display, error) {
	switch cfg.Backend {
	case "matrix":
		return NewMatrix(cfg.Matrix)
	case "oled":
		return NewOLED(cfg.OLED)
	case "console":
		return NewConsole(), nil
	default:
		return nil, fmt.Errorf("display: unknown backend %q", cfg.Backend)
	}
}
