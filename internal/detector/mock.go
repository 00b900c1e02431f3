package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector returns preset results. It is safe for use from the capture
// worker while a test changes its results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err      error
	startErr error
	calls    int
	starts   int
}

// NewMockDetector creates a detector that finds nothing.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	m.hands = hands
	m.mu.Unlock()
}

// SetError sets the error returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// SetStartError sets the error returned by Start.
func (m *MockDetector) SetStartError(err error) {
	m.mu.Lock()
	m.startErr = err
	m.mu.Unlock()
}

// Starts returns how many times Start was called.
func (m *MockDetector) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

func (m *MockDetector) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	return m.startErr
}

// Calls returns how many frames were submitted.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

func (m *MockDetector) Close() error {
	return nil
}
