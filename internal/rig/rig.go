// Package rig classifies a hand skeleton's bones into finger segment slots.
package rig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/scene"
)

// Finger names a digit of the hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// Fingers lists every finger in classification order.
var Fingers = [...]Finger{Thumb, Index, Middle, Ring, Pinky}

func (f Finger) String() string {
	switch f {
	case Thumb:
		return "thumb"
	case Index:
		return "index"
	case Middle:
		return "middle"
	case Ring:
		return "ring"
	case Pinky:
		return "pinky"
	default:
		return fmt.Sprintf("finger(%d)", int(f))
	}
}

// Segments is the number of bone slots per finger, proximal to distal.
const Segments = 3

// FingerLandmarks lists the landmark chain of each finger. Segment i of a
// finger spans landmarks [i] and [i+1].
var FingerLandmarks = [NumFingers][Segments + 1]int{
	Thumb:  {hand.ThumbCMC, hand.ThumbMCP, hand.ThumbIP, hand.ThumbTip},
	Index:  {hand.IndexMCP, hand.IndexPIP, hand.IndexDIP, hand.IndexTip},
	Middle: {hand.MiddleMCP, hand.MiddlePIP, hand.MiddleDIP, hand.MiddleTip},
	Ring:   {hand.RingMCP, hand.RingPIP, hand.RingDIP, hand.RingTip},
	Pinky:  {hand.PinkyMCP, hand.PinkyPIP, hand.PinkyDIP, hand.PinkyTip},
}

// Axis is the local bone axis aligned with the finger segment direction.
type Axis int

const (
	AxisZ Axis = iota
	AxisX
	AxisY
	AxisXNeg
	AxisYNeg
	AxisZNeg
)

// ParseAxis parses x, y, z, xn, yn or zn. Anything else yields AxisZ, the
// registry's default axis.
func ParseAxis(s string) Axis {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX
	case "y":
		return AxisY
	case "xn":
		return AxisXNeg
	case "yn":
		return AxisYNeg
	case "zn":
		return AxisZNeg
	default:
		return AxisZ
	}
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisXNeg:
		return "xn"
	case AxisYNeg:
		return "yn"
	case AxisZNeg:
		return "zn"
	default:
		return "z"
	}
}

// Vec3 returns the axis as a unit vector.
func (a Axis) Vec3() mgl64.Vec3 {
	switch a {
	case AxisX:
		return mgl64.Vec3{1, 0, 0}
	case AxisY:
		return mgl64.Vec3{0, 1, 0}
	case AxisXNeg:
		return mgl64.Vec3{-1, 0, 0}
	case AxisYNeg:
		return mgl64.Vec3{0, -1, 0}
	case AxisZNeg:
		return mgl64.Vec3{0, 0, -1}
	default:
		return mgl64.Vec3{0, 0, 1}
	}
}

// Slot is a (finger, segment) position in a bone map.
type Slot struct {
	Finger  Finger
	Segment int
}

// Classifier maps a bone name to its slot, or reports false for bones that
// are not finger segments.
type Classifier func(name string) (Slot, bool)

var fingerTriggers = [NumFingers][]string{
	Thumb:  {"thumb"},
	Index:  {"index", "point"},
	Middle: {"middle"},
	Ring:   {"ring"},
	Pinky:  {"pinky", "little"},
}

// ClassifyName is the default classifier. It matches lower-cased substrings:
// when triggers of several fingers appear the last in Fingers order wins,
// then "1"/"prox"/"meta" give segment 0, "2"/"inter" segment 1 and
// "3"/"dist" segment 2.
func ClassifyName(name string) (Slot, bool) {
	n := strings.ToLower(name)

	seg := segment(n)
	if seg < 0 {
		return Slot{}, false
	}
	slot, ok := Slot{}, false
	for _, f := range Fingers {
		if slices.ContainsFunc(fingerTriggers[f], func(t string) bool { return strings.Contains(n, t) }) {
			slot, ok = Slot{Finger: f, Segment: seg}, true
		}
	}
	return slot, ok
}

func segment(n string) int {
	switch {
	case strings.Contains(n, "1"), strings.Contains(n, "prox"), strings.Contains(n, "meta"):
		return 0
	case strings.Contains(n, "2"), strings.Contains(n, "inter"):
		return 1
	case strings.Contains(n, "3"), strings.Contains(n, "dist"):
		return 2
	}
	return -1
}

// BoneMap holds the classified finger bones of one hand skeleton. It is
// read-only after Map returns.
type BoneMap struct {
	Axis  Axis
	bones [NumFingers][Segments]*scene.Node
}

// Map walks the bones under root and classifies each one. A nil classifier
// uses ClassifyName. When several bones land in one slot the last visited
// wins. Empty slots are expected and skipped by consumers.
func Map(root *scene.Node, classify Classifier, axis Axis) *BoneMap {
	if classify == nil {
		classify = ClassifyName
	}

	m := &BoneMap{Axis: axis}
	if root == nil {
		return m
	}
	root.Traverse(func(n *scene.Node) {
		if !n.Bone {
			return
		}
		slot, ok := classify(n.Name)
		if !ok || slot.Finger < 0 || slot.Finger >= NumFingers || slot.Segment < 0 || slot.Segment >= Segments {
			return
		}
		m.bones[slot.Finger][slot.Segment] = n
	})
	return m
}

// Bone returns the bone in slot (f, seg), or nil when the slot is empty.
func (m *BoneMap) Bone(f Finger, seg int) *scene.Node {
	if m == nil || f < 0 || f >= NumFingers || seg < 0 || seg >= Segments {
		return nil
	}
	return m.bones[f][seg]
}

// Len returns the number of filled slots.
func (m *BoneMap) Len() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, f := range m.bones {
		for _, b := range f {
			if b != nil {
				n++
			}
		}
	}
	return n
}
