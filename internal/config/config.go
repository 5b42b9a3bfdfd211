package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	I2C         I2CConfig         `yaml:"i2c"`
	Serial      SerialConfig      `yaml:"serial"`
	Display     DisplayConfig     `yaml:"display"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Sensor      SensorConfig      `yaml:"sensor"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Web         WebConfig         `yaml:"web"`
}

type I2CConfig struct {
	Bus       string `yaml:"bus"`
	AccelAddr uint16 `yaml:"accel_addr"`
	MagAddr   uint16 `yaml:"mag_addr"`
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud uint   `yaml:"baud"`
}

type DisplayConfig struct {
	Backend string        `yaml:"backend"`
	Hold    time.Duration `yaml:"hold"`
	Matrix  MatrixConfig  `yaml:"matrix"`
	OLED    OLEDConfig    `yaml:"oled"`
}

type MatrixConfig struct {
	Chip     string        `yaml:"chip"`
	RowPins  []int         `yaml:"row_pins"`
	ColPins  []int         `yaml:"col_pins"`
	RowDwell time.Duration `yaml:"row_dwell"`
}

type OLEDConfig struct {
	Bus  string `yaml:"bus"`
	Addr uint16 `yaml:"addr"`
}

type CalibrationConfig struct {
	Samples      int   `yaml:"samples"`
	MinHalfRange int32 `yaml:"min_half_range"`
	// Timeout bounds the interactive procedure if the sensor stops
	// producing data.
	Timeout time.Duration `yaml:"timeout"`
	// Default overrides the built-in boot record when present.
	Default *CalibrationRecord `yaml:"default"`
}

type CalibrationRecord struct {
	Center AxisTriple `yaml:"center"`
	Scale  AxisTriple `yaml:"scale"`
	Radius int32      `yaml:"radius"`
}

type AxisTriple struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
	Z int32 `yaml:"z"`
}

type SensorConfig struct {
	// MaxConsecutiveFaults is how many steady-state read failures in a row
	// the loop tolerates before it gives up and exits.
	MaxConsecutiveFaults int `yaml:"max_consecutive_faults"`
}

type TelemetryConfig struct {
	Enable           bool   `yaml:"enable"`
	Broker           string `yaml:"broker"`
	ClientID         string `yaml:"client_id"`
	MeasurementTopic string `yaml:"measurement_topic"`
	CalibrationTopic string `yaml:"calibration_topic"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func DefaultAndValidate(cfg *Config) error {
	if cfg.I2C.Bus == "" {
		cfg.I2C.Bus = "/dev/i2c-1"
	}
	if cfg.I2C.AccelAddr == 0 {
		cfg.I2C.AccelAddr = 0x19
	}
	if cfg.I2C.MagAddr == 0 {
		cfg.I2C.MagAddr = 0x1E
	}

	if cfg.Serial.Port == "" {
		return fmt.Errorf("serial.port is required")
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}

	if cfg.Display.Backend == "" {
		cfg.Display.Backend = "matrix"
	}
	switch cfg.Display.Backend {
	case "matrix":
		if len(cfg.Display.Matrix.RowPins) != 5 || len(cfg.Display.Matrix.ColPins) != 5 {
			return fmt.Errorf("display.matrix needs exactly 5 row_pins and 5 col_pins")
		}
	case "oled", "console":
	default:
		return fmt.Errorf("display.backend must be matrix, oled or console, got %q", cfg.Display.Backend)
	}
	if cfg.Display.Hold <= 0 {
		cfg.Display.Hold = 100 * time.Millisecond
	}
	if cfg.Display.Matrix.Chip == "" {
		cfg.Display.Matrix.Chip = "/dev/gpiochip0"
	}
	if cfg.Display.Matrix.RowDwell <= 0 {
		cfg.Display.Matrix.RowDwell = 2 * time.Millisecond
	}
	if cfg.Display.OLED.Addr == 0 {
		cfg.Display.OLED.Addr = 0x3C
	}

	if cfg.Calibration.Samples <= 0 {
		cfg.Calibration.Samples = 200
	}
	if cfg.Calibration.MinHalfRange <= 0 {
		cfg.Calibration.MinHalfRange = 1
	}
	if cfg.Calibration.Timeout <= 0 {
		cfg.Calibration.Timeout = 2 * time.Minute
	}
	if d := cfg.Calibration.Default; d != nil {
		if d.Scale.X <= 0 || d.Scale.Y <= 0 || d.Scale.Z <= 0 {
			return fmt.Errorf("calibration.default.scale must be positive")
		}
		if d.Radius <= 0 {
			return fmt.Errorf("calibration.default.radius must be positive")
		}
	}

	if cfg.Sensor.MaxConsecutiveFaults <= 0 {
		cfg.Sensor.MaxConsecutiveFaults = 3
	}

	if cfg.Telemetry.Enable {
		if cfg.Telemetry.Broker == "" {
			return fmt.Errorf("telemetry.broker is required when telemetry.enable is true")
		}
		if cfg.Telemetry.ClientID == "" {
			cfg.Telemetry.ClientID = "ledcompass"
		}
		if cfg.Telemetry.MeasurementTopic == "" {
			cfg.Telemetry.MeasurementTopic = "ledcompass/measurements"
		}
		if cfg.Telemetry.CalibrationTopic == "" {
			cfg.Telemetry.CalibrationTopic = "ledcompass/calibration"
		}
	}

	if cfg.Web.Enable && cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	return nil
}
