package compass

import "fmt"

// Measurement is one raw axis triple from either sensor, in the sensor's
// native units. Values are transient; a reading is produced, corrected and
// consumed within a single loop iteration.
type Measurement struct {
	X, Y, Z int32
}

func (m Measurement) String() string {
	return fmt.Sprintf("(%d, %d, %d)", m.X, m.Y, m.Z)
}
