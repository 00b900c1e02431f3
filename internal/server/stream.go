package server

import (
	"fmt"
	"net/http"
	"time"
)

// PreviewSource supplies the latest preview JPEG and its sequence number.
type PreviewSource interface {
	Preview() ([]byte, uint64)
}

// streamInterval paces the MJPEG stream at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the camera preview as MJPEG.
type StreamHandler struct {
	source PreviewSource
}

// NewStreamHandler creates a new StreamHandler reading from source.
func NewStreamHandler(source PreviewSource) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP streams MJPEG frames to the client until it disconnects. A frame
// is written only when the preview changed; nothing is sent while the
// camera is off.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	tick := time.NewTicker(streamInterval)
	defer tick.Stop()

	var sent uint64
	for {
		jpeg, seq := h.source.Preview()
		if jpeg != nil && seq != sent {
			sent = seq
			if err := writeFrame(w, jpeg); err != nil {
				return
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
		}
	}
}

func writeFrame(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
