package display

import (
	"errors"
	"testing"
	"time"

	"ledcompass/internal/compass"
)

type fakeLines struct {
	sets   [][]int
	closed bool
	err    error
}

func (f *fakeLines) SetValues(values []int) error {
	if f.err != nil {
		return f.err
	}
	f.sets = append(f.sets, append([]int(nil), values...))
	return nil
}

func (f *fakeLines) Close() error {
	f.closed = true
	return nil
}

func withFakeLines(t *testing.T, rows, cols *fakeLines) {
	t.Helper()
	oldOpen := openLinesFn
	calls := 0
	openLinesFn = func(chip string, offsets []int, initial int) (gpioLines, error) {
		calls++
		if calls == 1 {
			return rows, nil
		}
		return cols, nil
	}
	oldSleep := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() {
		openLinesFn = oldOpen
		sleep = oldSleep
	})
}

func testMatrixConfig() MatrixConfig {
	return MatrixConfig{
		Chip:     "/dev/gpiochip0",
		RowPins:  []int{21, 22, 15, 24, 19},
		ColPins:  []int{28, 11, 31, 5, 30},
		RowDwell: time.Millisecond,
	}
}

func TestNewMatrix_RequiresFivePins(t *testing.T) {
	_, err := NewMatrix(MatrixConfig{RowPins: []int{1, 2}, ColPins: []int{3, 4, 5, 6, 7}})
	if err == nil {
		t.Fatalf("expected error for wrong pin count")
	}
}

func TestMatrix_ShowScansAllRows(t *testing.T) {
	rows, cols := &fakeLines{}, &fakeLines{}
	withFakeLines(t, rows, cols)

	m, err := NewMatrix(testMatrixConfig())
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	if err := m.Show(compass.Glyph(compass.East), 5*time.Millisecond); err != nil {
		t.Fatalf("Show: %v", err)
	}

	// One pass of 5 rows, plus the final blank.
	if len(rows.sets) != 6 {
		t.Fatalf("row sets=%d want 6", len(rows.sets))
	}
	for i := 0; i < 5; i++ {
		want := rowValues(i)
		for j, v := range rows.sets[i] {
			if v != want[j] {
				t.Fatalf("pass row %d = %v want %v", i, rows.sets[i], want)
			}
		}
	}
	last := rows.sets[len(rows.sets)-1]
	for _, v := range last {
		if v != 0 {
			t.Fatalf("final row state not blank: %v", last)
		}
	}

	// Middle row of the east glyph is fully lit: all columns sunk low.
	mid := cols.sets[2]
	for _, v := range mid {
		if v != 0 {
			t.Fatalf("east glyph middle row cols=%v want all 0 (active low)", mid)
		}
	}
}

func TestMatrix_ShowPropagatesGPIOError(t *testing.T) {
	wantErr := errors.New("line busy")
	rows, cols := &fakeLines{}, &fakeLines{err: wantErr}
	withFakeLines(t, rows, cols)

	m, err := NewMatrix(testMatrixConfig())
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	if err := m.Show(compass.Frame{}, time.Millisecond); !errors.Is(err, wantErr) {
		t.Fatalf("err=%v want wrapped %v", err, wantErr)
	}
}

func TestMatrix_CloseBlanksAndClosesLines(t *testing.T) {
	rows, cols := &fakeLines{}, &fakeLines{}
	withFakeLines(t, rows, cols)

	m, err := NewMatrix(testMatrixConfig())
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !rows.closed || !cols.closed {
		t.Fatalf("lines not closed: rows=%v cols=%v", rows.closed, cols.closed)
	}
}

func TestColValues_ActiveLow(t *testing.T) {
	got := colValues([5]byte{1, 0, 1, 0, 1})
	want := []int{0, 1, 0, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("colValues=%v want %v", got, want)
		}
	}
}
