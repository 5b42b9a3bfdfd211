package web

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Local appliance UI; same-host pages and bench tools both connect.
		return true
	},
}

// Handler serves the appliance API. requestCalibration queues a
// recalibration for the acquisition loop to service, exactly like a serial
// SCAL command; it must not block.
func Handler(status *Status, headings *HeadingBroadcaster, requestCalibration func()) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		snap := status.Snapshot(time.Now().UTC())
		b, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})

	mux.HandleFunc("/api/calibrate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if requestCalibration == nil {
			http.Error(w, "calibration unavailable", http.StatusNotFound)
			return
		}
		requestCalibration()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{\"ok\":true}\n"))
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		id, ch := headings.Subscribe(4)
		defer headings.Unsubscribe(id)

		for sample := range ch {
			if err := conn.WriteJSON(sample); err != nil {
				return
			}
		}
	})

	return mux
}

// Serve runs the HTTP server until it fails. Callers run it in a goroutine;
// ListenAndServe errors (other than a clean shutdown) are returned.
func Serve(listen string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
