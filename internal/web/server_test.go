package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ledcompass/internal/compass"
)

func TestHandler_StatusSnapshot(t *testing.T) {
	status := NewStatus(compass.DefaultCalibration)
	status.SetHeading(1.23, compass.NorthEast)
	h := Handler(status, NewHeadingBroadcaster(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Direction != "NE" || !snap.HeadingValid {
		t.Fatalf("snapshot=%+v", snap)
	}
	if snap.Calibration.Radius != 48098 {
		t.Fatalf("calibration radius=%d", snap.Calibration.Radius)
	}
	if snap.Iterations != 1 {
		t.Fatalf("iterations=%d want 1", snap.Iterations)
	}
}

func TestHandler_StatusRejectsPost(t *testing.T) {
	h := Handler(NewStatus(compass.Calibration{}), NewHeadingBroadcaster(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d want 405", rec.Code)
	}
}

func TestHandler_CalibrateRequests(t *testing.T) {
	requested := false
	h := Handler(NewStatus(compass.Calibration{}), NewHeadingBroadcaster(), func() { requested = true })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calibrate", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	if !requested {
		t.Fatalf("calibration was not requested")
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestHandler_CalibrateUnavailable(t *testing.T) {
	h := Handler(NewStatus(compass.Calibration{}), NewHeadingBroadcaster(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calibrate", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", rec.Code)
	}
}

func TestHandler_WebsocketStreamsHeadings(t *testing.T) {
	bc := NewHeadingBroadcaster()
	h := Handler(NewStatus(compass.Calibration{}), bc, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler time to subscribe, then publish.
	deadline := time.Now().Add(2 * time.Second)
	go func() {
		for time.Now().Before(deadline) {
			bc.Publish(HeadingSample{ThetaRad: 0.5, Direction: "E"})
			time.Sleep(10 * time.Millisecond)
		}
	}()

	conn.SetReadDeadline(deadline)
	var sample HeadingSample
	if err := conn.ReadJSON(&sample); err != nil {
		t.Fatalf("read: %v", err)
	}
	if sample.Direction != "E" {
		t.Fatalf("direction=%q want E", sample.Direction)
	}
}
