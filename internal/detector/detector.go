package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrUnavailable is returned when the detection model cannot be started.
var ErrUnavailable = errors.New("hand detector unavailable")

// Detector finds hands in a frame.
type Detector interface {
	// Start brings the model up and confirms it answers. Errors wrap
	// ErrUnavailable.
	Start() error

	// Detect returns the hands in frame, or none.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases the model.
	Close() error
}

// Config tunes the detection model.
type Config struct {
	MaxHands        int
	MinConfidence   float64
	MinTrackingConf float64
}

// DefaultConfig tracks both hands at 0.5 confidence.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
