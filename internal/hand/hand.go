package hand

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultAnimation is the idle clip every hand falls back to.
const DefaultAnimation = "Default"

// Side identifies one of the avatar's hands.
type Side int

const (
	Left Side = iota
	Right
)

// Sides lists both hands in a stable order.
var Sides = [...]Side{Left, Right}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// ParseSide parses "left" or "right".
func ParseSide(s string) (Side, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown hand side %q", s)
}

// SideForHandedness maps a detector label to the avatar side. The
// front-facing camera mirrors the image, so "Left" drives the right hand.
func SideForHandedness(label string) (Side, bool) {
	switch label {
	case "Left":
		return Right, true
	case "Right":
		return Left, true
	}
	return 0, false
}

// Source is the kind of input feeding a hand.
type Source int

const (
	SourceCamera Source = iota
	SourcePhone
	SourceVR
	numSources
)

// NumSources is the number of source kinds.
const NumSources = int(numSources)

// Sources lists every source kind.
var Sources = [...]Source{SourceCamera, SourcePhone, SourceVR}

func (s Source) String() string {
	switch s {
	case SourceCamera:
		return "camera"
	case SourcePhone:
		return "phone"
	case SourceVR:
		return "vr"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Pose is the fused result of arbitration for one hand in one frame.
type Pose struct {
	Position    mgl64.Vec3
	Rotation    mgl64.Quat
	HasPosition bool
	HasRotation bool
	Landmarks   Landmarks
	Animation   string
	Source      Source
}
