//go:build linux

package i2c

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux I2C backed by /dev/i2c-*.
//
// Register reads go through I2C_RDWR so the address write and the data read
// happen in one combined transaction (repeated start). The LSM303AGR, like
// most ST sensors, requires that for register access.

const (
	i2cMrd  = 0x0001
	i2cRdwr = 0x0707
)

type msg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

type rdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// Bus is an opened I2C adapter. One Bus serves any number of Dev handles
// (the accelerometer and magnetometer halves of the LSM303AGR sit on the
// same bus at different addresses). Transfers are not synchronized here;
// the acquisition loop is the only caller.
type Bus struct {
	f    *os.File
	path string
}

func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}
	return &Bus{f: f, path: path}, nil
}

func (b *Bus) Close() error {
	if b == nil || b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

func (b *Bus) String() string {
	if b == nil {
		return "i2c:<nil>"
	}
	return b.path
}

// Dev addresses one device on the bus (7-bit address).
func (b *Bus) Dev(addr uint16) *Dev {
	if b == nil {
		return nil
	}
	return &Dev{bus: b, addr: addr}
}

type Dev struct {
	bus  *Bus
	addr uint16
}

func (d *Dev) ReadReg(reg byte, dst []byte) error {
	return d.transfer([]byte{reg}, dst)
}

func (d *Dev) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Dev) WriteReg(reg, value byte) error {
	return d.transfer([]byte{reg, value}, nil)
}

func (d *Dev) transfer(w, r []byte) error {
	if d == nil || d.bus == nil || d.bus.f == nil {
		return errors.New("i2c: device is nil")
	}
	if d.addr == 0 || d.addr > 0x7F {
		return fmt.Errorf("i2c: invalid addr 0x%X", d.addr)
	}

	msgs := make([]msg, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, msg{addr: d.addr, flags: 0, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))})
	}
	if len(r) > 0 {
		msgs = append(msgs, msg{addr: d.addr, flags: i2cMrd, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))})
	}
	if len(msgs) == 0 {
		return nil
	}

	data := rdwrData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.bus.f.Fd(), uintptr(i2cRdwr), uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return fmt.Errorf("i2c: transfer to 0x%02X on %s: %w", d.addr, d.bus.path, errno)
	}
	return nil
}
