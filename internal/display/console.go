package display

import (
	"log"
	"strings"
	"time"

	"ledcompass/internal/compass"
)

// Console renders frames to the process log. Bench backend for rigs
// without the LED grid wired up.
type Console struct{}

func NewConsole() *Console { return &Console{} }

func (c *Console) Show(f compass.Frame, hold time.Duration) error {
	var sb strings.Builder
	for _, row := range f {
		sb.WriteByte('\n')
		for _, cell := range row {
			if cell != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	log.Printf("display:%s", sb.String())
	sleep(hold)
	return nil
}

func (c *Console) Close() error { return nil }
