// Package geometry turns raw hand landmarks into a world-space palm
// position and orientation. Every function is pure.
package geometry

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/hand"
)

// Epsilon is the smallest length treated as a usable direction.
const Epsilon = 1e-9

var (
	// ErrIncomplete is returned when a landmark set lacks required indices.
	ErrIncomplete = errors.New("incomplete landmark set")
	// ErrDegenerate is returned when landmarks collapse to a point or line.
	ErrDegenerate = errors.New("degenerate landmark geometry")
)

// basisCorrection aligns the solver's (right, up, forward) basis with the
// rest pose of the hand rigs.
var basisCorrection = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0})

// PalmBox is the axis-aligned bounding box of the palm landmarks.
type PalmBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Center returns the box center in image coordinates.
func (b PalmBox) Center() (x, y float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

// Size returns the larger of the box width and height.
func (b PalmBox) Size() float64 {
	return math.Max(b.MaxX-b.MinX, b.MaxY-b.MinY)
}

// Palm computes the bounding box over the wrist, thumb base and metacarpal
// landmarks.
func Palm(lm hand.Landmarks) (PalmBox, error) {
	if !lm.Complete() {
		return PalmBox{}, ErrIncomplete
	}

	b := PalmBox{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, idx := range hand.PalmIndices {
		p := lm[idx]
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b, nil
}

// PalmDistance inverts the pinhole relation: a palm of known physical size
// covering a fraction of the horizontal field of view sits at this depth.
func PalmDistance(lm hand.Landmarks, cfg config.Retarget) (float64, error) {
	box, err := Palm(lm)
	if err != nil {
		return 0, err
	}
	return palmDistance(box.Size(), cfg)
}

func palmDistance(size float64, cfg config.Retarget) (float64, error) {
	palmAngle := cfg.CameraFOVDeg * size
	half := math.Tan(mgl64.DegToRad(palmAngle / 2))
	if size < Epsilon || half < Epsilon || math.IsInf(half, 0) || math.IsNaN(half) {
		return 0, ErrDegenerate
	}
	return (cfg.PalmSizeMeters / 2) / half, nil
}

// WorldPosition estimates the palm position relative to the viewer.
func WorldPosition(lm hand.Landmarks, cfg config.Retarget) (mgl64.Vec3, error) {
	box, err := Palm(lm)
	if err != nil {
		return mgl64.Vec3{}, err
	}

	distance, err := palmDistance(box.Size(), cfg)
	if err != nil {
		return mgl64.Vec3{}, err
	}

	frustumWidth := 2 * distance * math.Tan(mgl64.DegToRad(cfg.CameraFOVDeg/2))
	cx, cy := box.Center()

	x := frustumWidth * (0.5 - cx) * cfg.LateralSeparation
	y := frustumWidth*(0.5-cy) + cfg.EyeHeightOffset

	var z float64
	if cfg.InverseDepth {
		z = -(cfg.ZOffset - distance)
	} else {
		z = -(distance + cfg.ZOffset)
	}

	return mgl64.Vec3{x, y, z}, nil
}

// Rotation reconstructs the palm orientation from the wrist, index MCP and
// pinky MCP. The cross product order flips with side to correct chirality.
func Rotation(lm hand.Landmarks, side hand.Side) (mgl64.Quat, error) {
	if !lm.Complete() {
		return mgl64.QuatIdent(), ErrIncomplete
	}

	wrist := lm[hand.Wrist].Mirrored()
	index := lm[hand.IndexMCP].Mirrored()
	pinky := lm[hand.PinkyMCP].Mirrored()

	forward, ok := Direction(wrist, index)
	if !ok {
		return mgl64.QuatIdent(), ErrDegenerate
	}
	across, ok := Direction(index, pinky)
	if !ok {
		return mgl64.QuatIdent(), ErrDegenerate
	}

	var up mgl64.Vec3
	if side == hand.Right {
		up = forward.Cross(across)
	} else {
		up = across.Cross(forward)
	}
	if up.Len() < Epsilon {
		return mgl64.QuatIdent(), ErrDegenerate
	}
	up = up.Normalize()
	right := up.Cross(forward).Normalize()

	basis := mgl64.Mat3FromCols(right, up, forward)
	q := mgl64.Mat4ToQuat(basis.Mat4())
	return q.Mul(basisCorrection).Normalize(), nil
}

// Direction returns the unit vector from a to b, or false when the points
// coincide.
func Direction(a, b mgl64.Vec3) (mgl64.Vec3, bool) {
	d := b.Sub(a)
	l := d.Len()
	if l < Epsilon || math.IsNaN(l) {
		return mgl64.Vec3{}, false
	}
	return d.Mul(1 / l), true
}

// TransformDirection applies the rotation and scale part of m to v and
// renormalizes, ignoring translation.
func TransformDirection(m mgl64.Mat4, v mgl64.Vec3) (mgl64.Vec3, bool) {
	d := m.Mul4x1(v.Vec4(0)).Vec3()
	l := d.Len()
	if l < Epsilon || math.IsNaN(l) {
		return mgl64.Vec3{}, false
	}
	return d.Mul(1 / l), true
}

// Slerp interpolates along the shorter arc between a and b.
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t).Normalize()
}

// Lerp interpolates linearly between two vectors.
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
