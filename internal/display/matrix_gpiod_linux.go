//go:build linux

package display

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// openLines requests a group of output lines on the given chip, all driven
// to initial. The gpiocdev character-device API keeps the lines claimed
// until Close, so two ledcompass processes cannot fight over the grid.
func openLines(chipPath string, offsets []int, initial int) (gpioLines, error) {
	chip, err := gpiocdev.NewChip(chipPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", chipPath, err)
	}
	vals := make([]int, len(offsets))
	for i := range vals {
		vals[i] = initial
	}
	lines, err := chip.RequestLines(offsets, gpiocdev.AsOutput(vals...), gpiocdev.WithConsumer("ledcompass"))
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("request lines %v: %w", offsets, err)
	}
	return &gpiodLines{chip: chip, lines: lines}, nil
}

type gpiodLines struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

func (g *gpiodLines) SetValues(values []int) error {
	return g.lines.SetValues(values)
}

func (g *gpiodLines) Close() error {
	err := g.lines.Close()
	_ = g.chip.Close()
	return err
}
