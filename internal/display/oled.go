package display

import (
	"fmt"
	"image"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"ledcompass/internal/compass"
)

// OLEDConfig selects the SSD1306 panel used on rigs without the LED grid.
type OLEDConfig struct {
	// Bus is the periph I2C bus name; empty picks the first available bus.
	Bus string
	// Addr is the panel address, typically 0x3C.
	Addr uint16
}

var hostInitOnce sync.Once
var hostInitErr error

// OLED scales each frame up onto a 128x64 SSD1306 with a fixed caption,
// the way a dev rig substitutes the grid.
type OLED struct {
	dev *ssd1306.Dev
	bus interface{ Close() error }
}

func NewOLED(cfg OLEDConfig) (*OLED, error) {
	if cfg.Addr == 0 {
		cfg.Addr = 0x3C
	}

	hostInitOnce.Do(func() { _, hostInitErr = host.Init() })
	if hostInitErr != nil {
		return nil, fmt.Errorf("display: periph init: %w", hostInitErr)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("display: oled bus: %w", err)
	}
	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("display: oled init: %w", err)
	}
	return &OLED{dev: dev, bus: bus}, nil
}

func (o *OLED) Show(f compass.Frame, hold time.Duration) error {
	img := image1bit.NewVerticalLSB(o.dev.Bounds())

	// 5x5 grid of 12px cells with a 1px gap, left-aligned.
	const cell, gap, x0, y0 = 11, 1, 2, 2
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			if f[row][col] == 0 {
				continue
			}
			px := x0 + col*(cell+gap)
			py := y0 + row*(cell+gap)
			for y := py; y < py+cell; y++ {
				for x := px; x < px+cell; x++ {
					img.SetBit(x, y, image1bit.On)
				}
			}
		}
	}

	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(70, 36),
	}
	d.DrawString("ledcompass")

	if err := o.dev.Draw(o.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("display: oled draw: %w", err)
	}
	sleep(hold)
	return nil
}

func (o *OLED) Close() error {
	if o == nil {
		return nil
	}
	err := o.dev.Halt()
	if o.bus != nil {
		_ = o.bus.Close()
	}
	return err
}
