// Package telemetry mirrors the serial measurement stream and calibration
// records onto MQTT for off-board logging. Optional; the compass loop never
// depends on it for correctness.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ledcompass/internal/compass"
)

type Config struct {
	Broker           string
	ClientID         string
	MeasurementTopic string
	CalibrationTopic string
}

// mqttClient is the slice of the paho API the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type message struct {
	topic   string
	payload []byte
}

// Publisher forwards messages to the broker from its own goroutine so a
// slow broker can never stall the acquisition loop. When the buffer is
// full the newest message is dropped.
type Publisher struct {
	cfg  Config
	cli  mqttClient
	ch   chan message
	done chan struct{}
}

func Connect(cfg Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", cfg.Broker, token.Error())
	}
	log.Printf("telemetry: connected to %s", cfg.Broker)
	return newWithClient(cfg, client), nil
}

func newWithClient(cfg Config, cli mqttClient) *Publisher {
	p := &Publisher{
		cfg:  cfg,
		cli:  cli,
		ch:   make(chan message, 64),
		done: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer close(p.done)
	for m := range p.ch {
		token := p.cli.Publish(m.topic, 0, false, m.payload)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("telemetry: publish to %s failed: %v", m.topic, err)
		}
	}
}

// PublishMeasurement forwards one telemetry line. Never blocks.
func (p *Publisher) PublishMeasurement(line string) {
	if p == nil {
		return
	}
	p.offer(message{topic: p.cfg.MeasurementTopic, payload: []byte(line)})
}

type calibrationRecord struct {
	CenterX int32 `json:"center_x"`
	CenterY int32 `json:"center_y"`
	CenterZ int32 `json:"center_z"`
	ScaleX  int32 `json:"scale_x"`
	ScaleY  int32 `json:"scale_y"`
	ScaleZ  int32 `json:"scale_z"`
	Radius  int32 `json:"radius"`
}

// PublishCalibration forwards a newly activated calibration record as JSON.
// Never blocks.
func (p *Publisher) PublishCalibration(cal compass.Calibration) {
	if p == nil {
		return
	}
	b, err := json.Marshal(calibrationRecord{
		CenterX: cal.Center.X, CenterY: cal.Center.Y, CenterZ: cal.Center.Z,
		ScaleX: cal.Scale.X, ScaleY: cal.Scale.Y, ScaleZ: cal.Scale.Z,
		Radius: cal.Radius,
	})
	if err != nil {
		log.Printf("telemetry: calibration marshal failed: %v", err)
		return
	}
	p.offer(message{topic: p.cfg.CalibrationTopic, payload: b})
}

func (p *Publisher) offer(m message) {
	select {
	case p.ch <- m:
	default:
		log.Printf("telemetry: buffer full, dropping message for %s", m.topic)
	}
}

// Close drains pending messages and disconnects.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	close(p.ch)
	<-p.done
	p.cli.Disconnect(250)
}
