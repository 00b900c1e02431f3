// Package hand defines the shared vocabulary of the hand pipeline: sides,
// input sources, landmark indices and the fused per-frame pose.
package hand

import "github.com/go-gl/mathgl/mgl64"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// PalmIndices are the landmarks whose bounding box approximates the palm.
var PalmIndices = [...]int{Wrist, ThumbCMC, ThumbMCP, IndexMCP, MiddleMCP, RingMCP, PinkyMCP}

// Point3D is one landmark in camera-normalized coordinates: x and y in
// [0,1] image space, z relative depth.
type Point3D struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Vec3 returns the point as a vector without any mirroring.
func (p Point3D) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// Mirrored returns the point with x and y negated, converting image
// handedness into world handedness.
func (p Point3D) Mirrored() mgl64.Vec3 {
	return mgl64.Vec3{-p.X, -p.Y, p.Z}
}

// Landmarks is the ordered landmark sequence of one detected hand. A full
// set has NumLandmarks points; shorter sets arrive from lossy peers and are
// consumed only as far as they reach.
type Landmarks []Point3D

// Complete reports whether every landmark index is present.
func (l Landmarks) Complete() bool {
	return len(l) >= NumLandmarks
}

// Has reports whether index i is present.
func (l Landmarks) Has(i int) bool {
	return i >= 0 && i < len(l)
}

// Clone returns an independent copy, or nil for an empty set.
func (l Landmarks) Clone() Landmarks {
	if len(l) == 0 {
		return nil
	}
	out := make(Landmarks, len(l))
	copy(out, l)
	return out
}
