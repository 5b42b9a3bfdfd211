//go:build !linux

package display

import "fmt"

func openLines(chipPath string, offsets []int, initial int) (gpioLines, error) {
	return nil, fmt.Errorf("gpio unsupported on this platform")
}
