// Package serialcmd implements the host-facing serial channel: telemetry
// lines out, a fixed one-token command protocol in.
package serialcmd

import "bytes"

// Command is the parsed result of one received line.
type Command int

const (
	// CmdUnknown is anything but the recalibration token. Logged and ignored.
	CmdUnknown Command = iota
	// CmdCalibrate is the "SCAL" token: run the interactive calibration and
	// swap in the result.
	CmdCalibrate
)

var calibrateToken = []byte("SCAL")

// Parse maps a completed line (terminator already stripped) to a command.
func Parse(line []byte) Command {
	if bytes.Equal(line, calibrateToken) {
		return CmdCalibrate
	}
	return CmdUnknown
}

// LineCap is the fixed line buffer size. A line longer than this is flushed
// as-is rather than dropped.
const LineCap = 32

// LineBuffer frames incoming serial bytes into lines. CR, LF or a full
// buffer completes the line; terminators are excluded from the result and
// the buffer is cleared after each completed line.
type LineBuffer struct {
	buf [LineCap]byte
	n   int
}

// Feed consumes one byte. When it completes a line it returns the
// accumulated bytes and true; the returned slice is only valid until the
// next Feed call.
func (b *LineBuffer) Feed(c byte) ([]byte, bool) {
	if c == '\r' || c == '\n' {
		line := b.buf[:b.n]
		b.n = 0
		return line, true
	}
	b.buf[b.n] = c
	b.n++
	if b.n == LineCap {
		line := b.buf[:b.n]
		b.n = 0
		return line, true
	}
	return nil, false
}

// Len returns the number of buffered bytes awaiting a terminator.
func (b *LineBuffer) Len() int { return b.n }
