package lsm303agr

import (
	"fmt"
	"time"

	"ledcompass/internal/compass"
	"ledcompass/internal/i2c"
)

var sleep = time.Sleep

// Minimal LSM303AGR driver.
//
// The chip is two I2C devices behind one package: accelerometer at 0x19,
// magnetometer at 0x1E. Focus: WHO_AM_I probe, 10 Hz continuous bring-up,
// "new data" status polls and raw axis reads. The acquisition loop
// busy-waits on the status flags; nothing here is interrupt driven.

const (
	addrAccel = 0x19
	addrMag   = 0x1E

	// Accelerometer registers.
	regWhoAmIA = 0x0F
	whoAmIAVal = 0x33
	regCtrl1A  = 0x20
	regCtrl4A  = 0x23
	regStatusA = 0x27
	regOutXLA  = 0x28

	// Magnetometer registers.
	regWhoAmIM = 0x4F
	whoAmIMVal = 0x40
	regCfgAM   = 0x60
	regCfgCM   = 0x62
	regStatusM = 0x67
	regOutXLM  = 0x68

	// Subaddress MSB enables register auto-increment on multi-byte reads.
	bitAutoInc = 0x80
	// STATUS_REG_A / STATUS_REG_M: X, Y and Z new data available.
	bitZyxda = 0x08

	// CTRL_REG1_A: 10 Hz ODR, normal mode, X/Y/Z enabled.
	ctrl1AInit = 0x27
	// CTRL_REG4_A: block data update.
	ctrl4AInit = 0x80
	// CFG_REG_A_M: low-power, 10 Hz, continuous conversion.
	cfgAMInit = 0x10
	// CFG_REG_C_M: block data update.
	cfgCMInit = 0x10

	// Normal mode is 10-bit left-justified at 4 mg/LSB (+/-2g).
	accelShift        = 6
	accelMilliGPerLSB = 4
)

func AccelAddress() uint16 { return addrAccel }
func MagAddress() uint16   { return addrMag }

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

type Device struct {
	accel regIO
	mag   regIO
}

func New(accel, mag *i2c.Dev) (*Device, error) {
	if accel == nil || mag == nil {
		return nil, fmt.Errorf("lsm303agr: dev is nil")
	}
	return newWithIO(accel, mag)
}

func newWithIO(accel, mag regIO) (*Device, error) {
	if accel == nil || mag == nil {
		return nil, fmt.Errorf("lsm303agr: dev is nil")
	}
	d := &Device{accel: accel, mag: mag}

	who, err := d.accel.ReadRegU8(regWhoAmIA)
	if err != nil {
		return nil, fmt.Errorf("lsm303agr: accel whoami read failed: %w", err)
	}
	if who != whoAmIAVal {
		return nil, fmt.Errorf("lsm303agr: accel whoami=0x%02X want 0x%02X", who, whoAmIAVal)
	}

	who, err = d.mag.ReadRegU8(regWhoAmIM)
	if err != nil {
		return nil, fmt.Errorf("lsm303agr: mag whoami read failed: %w", err)
	}
	if who != whoAmIMVal {
		return nil, fmt.Errorf("lsm303agr: mag whoami=0x%02X want 0x%02X", who, whoAmIMVal)
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	if err := d.accel.WriteReg(regCtrl1A, ctrl1AInit); err != nil {
		return fmt.Errorf("lsm303agr: accel config failed: %w", err)
	}
	if err := d.accel.WriteReg(regCtrl4A, ctrl4AInit); err != nil {
		return fmt.Errorf("lsm303agr: accel config failed: %w", err)
	}
	if err := d.mag.WriteReg(regCfgAM, cfgAMInit); err != nil {
		return fmt.Errorf("lsm303agr: mag config failed: %w", err)
	}
	if err := d.mag.WriteReg(regCfgCM, cfgCMInit); err != nil {
		return fmt.Errorf("lsm303agr: mag config failed: %w", err)
	}
	// First conversion at 10 Hz.
	sleep(100 * time.Millisecond)
	return nil
}

// MagReady reports whether a fresh magnetometer triple is available.
func (d *Device) MagReady() (bool, error) {
	status, err := d.mag.ReadRegU8(regStatusM)
	if err != nil {
		return false, fmt.Errorf("lsm303agr: mag status read failed: %w", err)
	}
	return status&bitZyxda != 0, nil
}

// ReadMag returns the raw magnetometer triple in native counts.
func (d *Device) ReadMag() (compass.Measurement, error) {
	var buf [6]byte
	if err := d.mag.ReadReg(regOutXLM|bitAutoInc, buf[:]); err != nil {
		return compass.Measurement{}, fmt.Errorf("lsm303agr: mag read failed: %w", err)
	}
	return compass.Measurement{
		X: int32(int16(uint16(buf[0]) | uint16(buf[1])<<8)),
		Y: int32(int16(uint16(buf[2]) | uint16(buf[3])<<8)),
		Z: int32(int16(uint16(buf[4]) | uint16(buf[5])<<8)),
	}, nil
}

// AccelReady reports whether a fresh accelerometer triple is available.
func (d *Device) AccelReady() (bool, error) {
	status, err := d.accel.ReadRegU8(regStatusA)
	if err != nil {
		return false, fmt.Errorf("lsm303agr: accel status read failed: %w", err)
	}
	return status&bitZyxda != 0, nil
}

// ReadAccel returns the acceleration triple in milli-g.
func (d *Device) ReadAccel() (compass.Measurement, error) {
	var buf [6]byte
	if err := d.accel.ReadReg(regOutXLA|bitAutoInc, buf[:]); err != nil {
		return compass.Measurement{}, fmt.Errorf("lsm303agr: accel read failed: %w", err)
	}
	return compass.Measurement{
		X: accelMilliG(buf[0], buf[1]),
		Y: accelMilliG(buf[2], buf[3]),
		Z: accelMilliG(buf[4], buf[5]),
	}, nil
}

func accelMilliG(lo, hi byte) int32 {
	raw := int16(uint16(lo) | uint16(hi)<<8)
	return int32(raw>>accelShift) * accelMilliGPerLSB
}
