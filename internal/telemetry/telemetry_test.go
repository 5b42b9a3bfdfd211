package telemetry

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ledcompass/internal/compass"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type publishOp struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	published    []publishOp
	disconnected bool
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishOp{topic: topic, payload: payload.([]byte)})
	return &fakeToken{}
}

func (f *fakeClient) Disconnect(quiesce uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
}

func testConfig() Config {
	return Config{
		Broker:           "tcp://localhost:1883",
		ClientID:         "test",
		MeasurementTopic: "ledcompass/measurements",
		CalibrationTopic: "ledcompass/calibration",
	}
}

func TestPublisher_MeasurementReachesBroker(t *testing.T) {
	cli := &fakeClient{}
	p := newWithClient(testConfig(), cli)

	p.PublishMeasurement("Measurement: 1.00, 2.00, 3.00, 4.00, 5.00, 6.00")
	p.Close()

	if len(cli.published) != 1 {
		t.Fatalf("published=%d want 1", len(cli.published))
	}
	got := cli.published[0]
	if got.topic != "ledcompass/measurements" {
		t.Fatalf("topic=%q", got.topic)
	}
	if string(got.payload) != "Measurement: 1.00, 2.00, 3.00, 4.00, 5.00, 6.00" {
		t.Fatalf("payload=%q", got.payload)
	}
	if !cli.disconnected {
		t.Fatalf("Close did not disconnect")
	}
}

func TestPublisher_CalibrationAsJSON(t *testing.T) {
	cli := &fakeClient{}
	p := newWithClient(testConfig(), cli)

	p.PublishCalibration(compass.DefaultCalibration)
	p.Close()

	if len(cli.published) != 1 {
		t.Fatalf("published=%d want 1", len(cli.published))
	}
	var rec calibrationRecord
	if err := json.Unmarshal(cli.published[0].payload, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.CenterX != 20962 || rec.ScaleY != 1177 || rec.Radius != 48098 {
		t.Fatalf("record=%+v", rec)
	}
}

func TestPublisher_NilIsSafe(t *testing.T) {
	var p *Publisher
	p.PublishMeasurement("x")
	p.PublishCalibration(compass.Calibration{})
	p.Close()
}
