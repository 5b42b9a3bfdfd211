package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ledcompass/internal/config"
	"ledcompass/internal/display"
	"ledcompass/internal/i2c"
	"ledcompass/internal/sensors/lsm303agr"
	"ledcompass/internal/serialcmd"
	"ledcompass/internal/telemetry"
	"ledcompass/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./ledcompass.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus, err := i2c.Open(cfg.I2C.Bus)
	if err != nil {
		log.Fatalf("i2c open failed: %v", err)
	}
	defer bus.Close()

	sensor, err := lsm303agr.New(bus.Dev(cfg.I2C.AccelAddr), bus.Dev(cfg.I2C.MagAddr))
	if err != nil {
		log.Fatalf("sensor init failed: %v", err)
	}

	disp, err := display.New(display.Config{
		Backend: cfg.Display.Backend,
		Matrix: display.MatrixConfig{
			Chip:     cfg.Display.Matrix.Chip,
			RowPins:  cfg.Display.Matrix.RowPins,
			ColPins:  cfg.Display.Matrix.ColPins,
			RowDwell: cfg.Display.Matrix.RowDwell,
		},
		OLED: display.OLEDConfig{
			Bus:  cfg.Display.OLED.Bus,
			Addr: cfg.Display.OLED.Addr,
		},
	})
	if err != nil {
		log.Fatalf("display init failed: %v", err)
	}
	defer disp.Close()

	port, err := serialcmd.Open(cfg.Serial.Port, cfg.Serial.Baud)
	if err != nil {
		log.Fatalf("serial open failed: %v", err)
	}
	defer port.Close()

	var pub *telemetry.Publisher
	if cfg.Telemetry.Enable {
		pub, err = telemetry.Connect(telemetry.Config{
			Broker:           cfg.Telemetry.Broker,
			ClientID:         cfg.Telemetry.ClientID,
			MeasurementTopic: cfg.Telemetry.MeasurementTopic,
			CalibrationTopic: cfg.Telemetry.CalibrationTopic,
		})
		if err != nil {
			log.Fatalf("telemetry connect failed: %v", err)
		}
		defer pub.Close()
	}

	rt := newRuntime(cfg, sensor, disp, port, pub)

	if cfg.Web.Enable {
		handler := web.Handler(rt.status, rt.headings, rt.requestCalibration)
		go func() {
			log.Printf("web listening on %s", cfg.Web.Listen)
			if err := web.Serve(cfg.Web.Listen, handler); err != nil {
				log.Printf("web server stopped: %v", err)
			}
		}()
	}

	log.Printf("ledcompass starting: sensor on %s, display backend %q", bus, cfg.Display.Backend)
	if err := rt.run(ctx); err != nil {
		log.Fatalf("acquisition loop failed: %v", err)
	}
	log.Printf("ledcompass stopping")
}
