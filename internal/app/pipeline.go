package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/tracker"
)

// Preview dot colors by detector label.
var (
	leftDot  = color.RGBA{R: 255, A: 255}
	rightDot = color.RGBA{B: 255, A: 255}
)

const dotRadius = 4

// cameraFrame is the solved result of one detection.
type cameraFrame struct {
	obs [len(hand.Sides)]*tracker.Observation
}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartCamera opens the camera and starts the detection worker. Starting a
// running session is a no-op.
func (a *App) StartCamera() error {
	a.camMu.Lock()
	defer a.camMu.Unlock()

	if a.session != nil {
		return nil
	}
	if a.detector == nil {
		return ErrDetectorUnavailable
	}
	if err := a.detector.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{cancel: cancel, done: make(chan struct{})}
	a.session = s
	go a.runCapture(ctx, s.done)

	a.log.Info("app: camera tracking started")
	return nil
}

// StopCamera stops the detection worker, closes the camera and resets the
// hands the camera was driving.
func (a *App) StopCamera() {
	a.camMu.Lock()
	s := a.session
	a.session = nil
	a.camMu.Unlock()

	if s == nil {
		return
	}
	s.cancel()
	<-s.done
	if err := a.camera.Close(); err != nil {
		a.log.Warn("app: close camera", "error", err)
	}
	a.camFrames.Take()
	a.preview.clear()
	a.camStopped.Store(true)

	a.log.Info("app: camera tracking stopped")
}

// CameraRunning reports whether a tracking session is active.
func (a *App) CameraRunning() bool {
	a.camMu.Lock()
	defer a.camMu.Unlock()
	return a.session != nil
}

// runCapture reads, previews and detects frames until ctx ends. Errors are
// logged on the first failure of a streak only. A detector that became
// unavailable ends the session and turns tracking off.
func (a *App) runCapture(ctx context.Context, done chan struct{}) {
	defer close(done)

	failing := false
	report := func(msg string, err error) {
		if !failing {
			a.log.Warn(msg, "error", err)
		}
		failing = true
	}

	tick := time.NewTicker(a.camera.Interval())
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			report("app: read camera frame", err)
			continue
		}
		hands, err := a.detector.Detect(frame)
		cfg := a.live.Get()
		a.preview.publish(frame, hands, cfg.ShowLandmarks)
		frame.Close()
		if errors.Is(err, detector.ErrUnavailable) {
			a.log.Warn("app: hand detector stopped, camera tracking off", "error", err)
			go a.disableTracking()
			return
		}
		if err != nil {
			report("app: detect hands", err)
			continue
		}
		failing = false

		a.camFrames.Put(solve(hands, cfg))
	}
}

// disableTracking stops the camera and stores HandTracking off.
func (a *App) disableTracking() {
	if _, err := a.UpdateSettings(func(r *config.Retarget) { r.HandTracking = false }); err != nil {
		a.log.Warn("app: store hand tracking off", "error", err)
	}
	a.StopCamera()
}

// solve turns detections into camera observations. A side whose geometry
// is degenerate is left without an observation.
func solve(hands []detector.HandLandmarks, cfg config.Retarget) cameraFrame {
	var out cameraFrame
	for side, h := range detector.BySide(hands) {
		if h == nil {
			continue
		}
		pos, perr := geometry.WorldPosition(h.Points, cfg)
		rot, rerr := geometry.Rotation(h.Points, hand.Side(side))
		if perr != nil && rerr != nil {
			continue
		}
		obs := &tracker.Observation{
			Position:    pos,
			Rotation:    rot,
			HasPosition: perr == nil,
			HasRotation: rerr == nil,
			Animation:   hand.DefaultAnimation,
		}
		if cfg.FingerTracking {
			obs.Landmarks = h.Points
		}
		out.obs[side] = obs
	}
	return out
}

// preview holds the latest mirrored camera frame as JPEG.
type preview struct {
	mu   sync.Mutex
	jpeg []byte
	seq  uint64
}

func (p *preview) publish(frame *gocv.Mat, hands []detector.HandLandmarks, dots bool) {
	img := capture.Mirror(frame)
	defer img.Close()

	if dots {
		w, h := float64(img.Cols()), float64(img.Rows())
		for _, hl := range hands {
			c := rightDot
			if hl.Handedness == "Left" {
				c = leftDot
			}
			for _, pt := range hl.Points {
				at := image.Pt(int((1-pt.X)*w), int(pt.Y*h))
				gocv.Circle(&img, at, dotRadius, c, -1)
			}
		}
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.mu.Lock()
	p.jpeg = data
	p.seq++
	p.mu.Unlock()
}

func (p *preview) clear() {
	p.mu.Lock()
	p.jpeg = nil
	p.seq++
	p.mu.Unlock()
}

// Preview returns the latest preview JPEG and a sequence number that
// changes with every new frame. The JPEG is nil while the camera is off.
func (a *App) Preview() ([]byte, uint64) {
	a.preview.mu.Lock()
	defer a.preview.mu.Unlock()
	return a.preview.jpeg, a.preview.seq
}
