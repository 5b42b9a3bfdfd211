package serialcmd

import (
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
)

// Port wraps the host serial link. Writes are blocking and ordered; reads
// are decoupled through a small pump goroutine so the acquisition loop can
// drain pending bytes without ever blocking on a quiet host.
type Port struct {
	rwc io.ReadWriteCloser
	rx  chan byte
}

// Open opens the serial device with the fixed 8N1 framing the protocol uses.
func Open(portName string, baudRate uint) (*Port, error) {
	rwc, err := serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		ParityMode:      serial.PARITY_NONE,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("serialcmd: open %s: %w", portName, err)
	}
	return newPort(rwc), nil
}

func newPort(rwc io.ReadWriteCloser) *Port {
	p := &Port{rwc: rwc, rx: make(chan byte, 256)}
	go p.pump()
	return p
}

// pump moves bytes from the device into the rx channel. It is the only
// writer of rx and closes it when the device read side fails (including
// the EOF that Close provokes).
func (p *Port) pump() {
	var buf [1]byte
	for {
		n, err := p.rwc.Read(buf[:])
		if n > 0 {
			p.rx <- buf[0]
		}
		if err != nil {
			close(p.rx)
			return
		}
	}
}

// TryReadByte returns the next pending byte without blocking.
func (p *Port) TryReadByte() (byte, bool) {
	select {
	case b, ok := <-p.rx:
		if !ok {
			return 0, false
		}
		return b, true
	default:
		return 0, false
	}
}

// Printf writes a formatted line to the host. Blocking, like the underlying
// device write.
func (p *Port) Printf(format string, args ...any) error {
	if _, err := fmt.Fprintf(p.rwc, format, args...); err != nil {
		return fmt.Errorf("serialcmd: write: %w", err)
	}
	return nil
}

func (p *Port) Close() error {
	if p == nil || p.rwc == nil {
		return nil
	}
	return p.rwc.Close()
}
