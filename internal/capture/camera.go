// Package capture reads frames from the tracking camera through GoCV.
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Capture defaults.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a closed camera.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device yields no image.
	ErrEmptyFrame = errors.New("camera returned an empty frame")
)

// Config selects the capture device and its format.
type Config struct {
	Device int
	FPS    int
	Width  int
	Height int
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	return c
}

// Camera is a frame source. ReadFrame returns a Mat the caller must close.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	Interval() time.Duration
	IsOpen() bool
}

type device struct {
	cfg Config

	mu  sync.Mutex
	dev *gocv.VideoCapture
}

// NewCamera returns a closed camera for cfg.
func NewCamera(cfg Config) Camera {
	return &device{cfg: cfg.withDefaults()}
}

// Open starts capturing. Opening an open camera is a no-op.
func (d *device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dev != nil {
		return nil
	}

	dev, err := gocv.OpenVideoCapture(d.cfg.Device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", d.cfg.Device, err)
	}
	if !dev.IsOpened() {
		dev.Close()
		return fmt.Errorf("open camera %d: device not available", d.cfg.Device)
	}
	dev.Set(gocv.VideoCaptureFrameWidth, float64(d.cfg.Width))
	dev.Set(gocv.VideoCaptureFrameHeight, float64(d.cfg.Height))
	dev.Set(gocv.VideoCaptureFPS, float64(d.cfg.FPS))

	d.dev = dev
	return nil
}

// Close releases the device. Closing a closed camera is a no-op.
func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dev == nil {
		return nil
	}
	err := d.dev.Close()
	d.dev = nil
	return err
}

func (d *device) ReadFrame() (*gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dev == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := d.dev.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}
	return &mat, nil
}

// Interval returns the time between frames at the configured rate.
func (d *device) Interval() time.Duration {
	return time.Second / time.Duration(d.cfg.FPS)
}

func (d *device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev != nil
}

// Mirror flips a frame horizontally into a new Mat so the preview reads
// like a mirror. The caller closes the result.
func Mirror(src *gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Flip(*src, &dst, 1)
	return dst
}
