// Package config holds the tunables of the hand pipeline and the process
// configuration file.
package config

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfRange is returned when a tunable falls outside its documented range.
var ErrOutOfRange = errors.New("value out of range")

// Retarget holds the camera-to-world mapping tunables and the runtime
// feature toggles. The zero value is not useful; start from DefaultRetarget.
type Retarget struct {
	CameraFOVDeg      float64 `json:"camera_fov" yaml:"camera_fov"`
	ZOffset           float64 `json:"z_offset" yaml:"z_offset"`
	PalmSizeMeters    float64 `json:"palm_size" yaml:"palm_size"`
	EyeHeightOffset   float64 `json:"eye_height" yaml:"eye_height"`
	InverseDepth      bool    `json:"inverse_depth" yaml:"inverse_depth"`
	LerpFactor        float64 `json:"lerp" yaml:"lerp"`
	LateralSeparation float64 `json:"separation" yaml:"separation"`

	HandTracking     bool `json:"hand_tracking" yaml:"hand_tracking"`
	FingerTracking   bool `json:"finger_tracking" yaml:"finger_tracking"`
	ShowLandmarks    bool `json:"show_landmarks" yaml:"show_landmarks"`
	DisableThumbBase bool `json:"disable_thumb_base" yaml:"disable_thumb_base"`
	PhoneInput       bool `json:"phone_input" yaml:"phone_input"`
}

// DefaultRetarget returns the tunables the pipeline ships with.
func DefaultRetarget() Retarget {
	return Retarget{
		CameraFOVDeg:      60,
		ZOffset:           0.8,
		PalmSizeMeters:    0.08,
		EyeHeightOffset:   -0.1,
		InverseDepth:      true,
		LerpFactor:        0.2,
		LateralSeparation: 3.0,
		PhoneInput:        true,
	}
}

type bound struct {
	name     string
	value    float64
	min, max float64
}

// Validate checks every numeric tunable against its range.
func (r Retarget) Validate() error {
	bounds := []bound{
		{"camera_fov", r.CameraFOVDeg, 30, 120},
		{"z_offset", r.ZOffset, 0, 3},
		{"palm_size", r.PalmSizeMeters, 0.01, 0.2},
		{"eye_height", r.EyeHeightOffset, -1, 1},
		{"lerp", r.LerpFactor, 0.01, 1},
		{"separation", r.LateralSeparation, 0.5, 5},
	}
	for _, b := range bounds {
		if !(b.value >= b.min && b.value <= b.max) {
			return fmt.Errorf("%s = %g not in [%g, %g]: %w", b.name, b.value, b.min, b.max, ErrOutOfRange)
		}
	}
	return nil
}

// Live is the process-wide owner of the current Retarget values. Settings
// surfaces write through it; the frame loop reads a copy once per frame.
type Live struct {
	mu  sync.RWMutex
	cur Retarget
}

// NewLive creates a holder seeded with r.
func NewLive(r Retarget) *Live {
	return &Live{cur: r}
}

// Get returns a copy of the current values.
func (l *Live) Get() Retarget {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

// Set replaces the values after validation.
func (l *Live) Set(r Retarget) error {
	if err := r.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.cur = r
	l.mu.Unlock()
	return nil
}

// Update applies fn to a copy and stores it if the result validates.
// It returns the values that are current afterwards.
func (l *Live) Update(fn func(*Retarget)) (Retarget, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.cur
	fn(&next)
	if err := next.Validate(); err != nil {
		return l.cur, err
	}
	l.cur = next
	return next, nil
}
