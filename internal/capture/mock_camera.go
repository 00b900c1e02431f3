package capture

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockCamera plays back a fixed frame sequence, optionally looping.
type MockCamera struct {
	mu      sync.Mutex
	frames  []*gocv.Mat
	next    int
	loop    bool
	open    bool
	openErr error
}

// NewMockCamera returns a closed mock over frames.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop}
}

// FailOpen makes the next Open calls return err.
func (c *MockCamera) FailOpen(err error) {
	c.mu.Lock()
	c.openErr = err
	c.mu.Unlock()
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.open, c.next = true, 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	return nil
}

// ReadFrame returns a clone of the next frame.
func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if c.next >= len(c.frames) && c.loop {
		c.next = 0
	}
	if c.next >= len(c.frames) {
		return nil, ErrEmptyFrame
	}
	frame := c.frames[c.next].Clone()
	c.next++
	return &frame, nil
}

func (c *MockCamera) Interval() time.Duration { return time.Second / DefaultFPS }

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
