// Package wire defines the messages exchanged with peers and the phone
// controller, and their msgpack and JSON encodings.
package wire

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/hand"
)

// ErrMalformed is returned for messages that cannot be decoded or fail
// validation.
var ErrMalformed = errors.New("malformed message")

// Vec3 is a position on the wire.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Quat is a rotation on the wire.
type Quat struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
	W float64 `json:"w" msgpack:"w"`
}

// FromVec3 converts a vector for the wire.
func FromVec3(v mgl64.Vec3) *Vec3 {
	return &Vec3{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// Vec3 converts back to a vector.
func (v Vec3) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromQuat converts a quaternion for the wire.
func FromQuat(q mgl64.Quat) *Quat {
	return &Quat{X: q.V.X(), Y: q.V.Y(), Z: q.V.Z(), W: q.W}
}

// Quat converts back to a unit quaternion.
func (q Quat) Quat() mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}.Normalize()
}

// Snapshot is the presence state a player publishes once per frame. Nil
// pointer and empty string fields are absent; landmark fields are always
// meaningful and nil means no fresh landmarks.
type Snapshot struct {
	Pos   *Vec3    `json:"pos,omitempty" msgpack:"pos,omitempty"`
	Yaw   *float64 `json:"yaw,omitempty" msgpack:"yaw,omitempty"`
	Pitch *float64 `json:"pitch,omitempty" msgpack:"pitch,omitempty"`

	LPos *Vec3 `json:"lPos,omitempty" msgpack:"lPos,omitempty"`
	LRot *Quat `json:"lRot,omitempty" msgpack:"lRot,omitempty"`
	RPos *Vec3 `json:"rPos,omitempty" msgpack:"rPos,omitempty"`
	RRot *Quat `json:"rRot,omitempty" msgpack:"rRot,omitempty"`

	LAnim string `json:"lAnim,omitempty" msgpack:"lAnim,omitempty"`
	RAnim string `json:"rAnim,omitempty" msgpack:"rAnim,omitempty"`

	LLandmarks hand.Landmarks `json:"lLandmarks" msgpack:"lLandmarks"`
	RLandmarks hand.Landmarks `json:"rLandmarks" msgpack:"rLandmarks"`

	HandModel      string `json:"handModel,omitempty" msgpack:"handModel,omitempty"`
	ControllerCode string `json:"controllerCode,omitempty" msgpack:"controllerCode,omitempty"`
}

// Merge overlays the fields present in u onto s. Landmarks always take the
// update's value so a peer that stops tracking clears them.
func (s *Snapshot) Merge(u Snapshot) {
	if u.Pos != nil {
		s.Pos = u.Pos
	}
	if u.Yaw != nil {
		s.Yaw = u.Yaw
	}
	if u.Pitch != nil {
		s.Pitch = u.Pitch
	}
	if u.LPos != nil {
		s.LPos = u.LPos
	}
	if u.LRot != nil {
		s.LRot = u.LRot
	}
	if u.RPos != nil {
		s.RPos = u.RPos
	}
	if u.RRot != nil {
		s.RRot = u.RRot
	}
	if u.LAnim != "" {
		s.LAnim = u.LAnim
	}
	if u.RAnim != "" {
		s.RAnim = u.RAnim
	}
	s.LLandmarks = u.LLandmarks
	s.RLandmarks = u.RLandmarks
	if u.HandModel != "" {
		s.HandModel = u.HandModel
	}
	if u.ControllerCode != "" {
		s.ControllerCode = u.ControllerCode
	}
}

// Position returns the hand group position of side, if present.
func (s *Snapshot) Position(side hand.Side) (mgl64.Vec3, bool) {
	p := s.LPos
	if side == hand.Right {
		p = s.RPos
	}
	if p == nil {
		return mgl64.Vec3{}, false
	}
	return p.Vec3(), true
}

// Rotation returns the hand group rotation of side, if present.
func (s *Snapshot) Rotation(side hand.Side) (mgl64.Quat, bool) {
	q := s.LRot
	if side == hand.Right {
		q = s.RRot
	}
	if q == nil {
		return mgl64.QuatIdent(), false
	}
	return q.Quat(), true
}

// Animation returns the clip side plays, defaulting when absent.
func (s *Snapshot) Animation(side hand.Side) string {
	a := s.LAnim
	if side == hand.Right {
		a = s.RAnim
	}
	if a == "" {
		return hand.DefaultAnimation
	}
	return a
}

// Landmarks returns the landmarks published for side.
func (s *Snapshot) Landmarks(side hand.Side) hand.Landmarks {
	if side == hand.Right {
		return s.RLandmarks
	}
	return s.LLandmarks
}

// SetHand records the group pose, clip and landmarks of side.
func (s *Snapshot) SetHand(side hand.Side, pos mgl64.Vec3, rot mgl64.Quat, anim string, lm hand.Landmarks) {
	if side == hand.Right {
		s.RPos, s.RRot, s.RAnim, s.RLandmarks = FromVec3(pos), FromQuat(rot), anim, lm.Clone()
		return
	}
	s.LPos, s.LRot, s.LAnim, s.LLandmarks = FromVec3(pos), FromQuat(rot), anim, lm.Clone()
}

// SetView records the body position and head angles.
func (s *Snapshot) SetView(pos mgl64.Vec3, yaw, pitch float64) {
	s.Pos = FromVec3(pos)
	s.Yaw = &yaw
	s.Pitch = &pitch
}
