package display

import (
	"fmt"
	"time"

	"ledcompass/internal/compass"
)

// MatrixConfig describes a directly driven 5x5 LED grid: five row lines
// sourcing current, five column lines sinking it (columns are active low).
type MatrixConfig struct {
	// Chip is the GPIO character device, e.g. /dev/gpiochip0.
	Chip string
	// RowPins and ColPins are line offsets on Chip, top-to-bottom and
	// left-to-right. Exactly five each.
	RowPins []int
	ColPins []int
	// RowDwell is how long each row stays lit during a scan pass.
	RowDwell time.Duration
}

// gpioLines is the slice of the gpiocdev Lines API the scanner needs.
type gpioLines interface {
	SetValues(values []int) error
	Close() error
}

// openLinesFn is swapped out in tests.
var openLinesFn = openLines

// Matrix multiplexes frames onto the grid. Only one row is ever lit at a
// time; persistence of vision does the rest.
type Matrix struct {
	rows     gpioLines
	cols     gpioLines
	rowDwell time.Duration
}

func NewMatrix(cfg MatrixConfig) (*Matrix, error) {
	if len(cfg.RowPins) != 5 || len(cfg.ColPins) != 5 {
		return nil, fmt.Errorf("display: matrix needs 5 row and 5 col pins, got %d/%d", len(cfg.RowPins), len(cfg.ColPins))
	}
	if cfg.Chip == "" {
		cfg.Chip = "/dev/gpiochip0"
	}
	if cfg.RowDwell <= 0 {
		cfg.RowDwell = 2 * time.Millisecond
	}

	// Rows start low (off), columns start high (off, active low).
	rows, err := openLinesFn(cfg.Chip, cfg.RowPins, 0)
	if err != nil {
		return nil, fmt.Errorf("display: matrix rows: %w", err)
	}
	cols, err := openLinesFn(cfg.Chip, cfg.ColPins, 1)
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("display: matrix cols: %w", err)
	}
	return &Matrix{rows: rows, cols: cols, rowDwell: cfg.RowDwell}, nil
}

func (m *Matrix) Show(f compass.Frame, hold time.Duration) error {
	passes := int(hold / (5 * m.rowDwell))
	if passes < 1 {
		passes = 1
	}
	for p := 0; p < passes; p++ {
		for row := 0; row < 5; row++ {
			if err := m.cols.SetValues(colValues(f[row])); err != nil {
				return fmt.Errorf("display: matrix cols: %w", err)
			}
			if err := m.rows.SetValues(rowValues(row)); err != nil {
				return fmt.Errorf("display: matrix rows: %w", err)
			}
			sleep(m.rowDwell)
		}
	}
	return m.blank()
}

func (m *Matrix) blank() error {
	if err := m.rows.SetValues([]int{0, 0, 0, 0, 0}); err != nil {
		return fmt.Errorf("display: matrix blank: %w", err)
	}
	return nil
}

func (m *Matrix) Close() error {
	if m == nil {
		return nil
	}
	_ = m.blank()
	err1 := m.rows.Close()
	err2 := m.cols.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func rowValues(active int) []int {
	v := make([]int, 5)
	v[active] = 1
	return v
}

// colValues maps lit cells to the active-low column levels.
func colValues(cells [5]byte) []int {
	v := make([]int, 5)
	for i, c := range cells {
		if c == 0 {
			v[i] = 1
		}
	}
	return v
}
