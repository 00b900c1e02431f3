package capture

import (
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestConfig_Defaults(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{"zero", Config{}, Config{FPS: DefaultFPS, Width: DefaultWidth, Height: DefaultHeight}},
		{"device kept", Config{Device: 2, FPS: 15}, Config{Device: 2, FPS: 15, Width: DefaultWidth, Height: DefaultHeight}},
		{"negative fps", Config{FPS: -1, Width: 320, Height: 240}, Config{FPS: DefaultFPS, Width: 320, Height: 240}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCamera_Interval(t *testing.T) {
	cam := NewCamera(Config{FPS: 20})
	if got := cam.Interval(); got != 50*time.Millisecond {
		t.Errorf("Interval() = %v, want 50ms", got)
	}
}

func TestCamera_NotOpened(t *testing.T) {
	cam := NewCamera(Config{})

	if cam.IsOpen() {
		t.Error("IsOpen() should be false before Open()")
	}
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on closed camera = %v", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(Config{})
	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}
	if !cam.IsOpen() {
		t.Error("IsOpen() should be true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should be false after Close()")
	}
}

func TestMirror(t *testing.T) {
	src := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV8U)
	defer src.Close()
	src.SetUCharAt(0, 0, 255)

	dst := Mirror(&src)
	defer dst.Close()

	if got := dst.GetUCharAt(0, 2); got != 255 {
		t.Errorf("mirrored pixel = %d, want 255", got)
	}
	if got := dst.GetUCharAt(0, 0); got != 0 {
		t.Errorf("original corner = %d, want 0", got)
	}
}
