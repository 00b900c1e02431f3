// Package testdata provides landmark sets and hand rigs shared by tests.
package testdata

import (
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/scene"
)

// HandRigYAML returns the raw description of the standard hand rig.
func HandRigYAML() []byte {
	return scene.DefaultRig()
}

// HandRig parses the standard hand rig: a wrist bone with three segments per
// finger named <finger>1..3, y-forward bones and Default, Fist, Point and
// Grab clips. Each call returns an independent tree.
func HandRig() *scene.Asset {
	asset, err := scene.ParseRig(scene.DefaultRig())
	if err != nil {
		panic("testdata: standard hand rig: " + err.Error())
	}
	return asset
}

// OpenPalm returns landmarks of an open right palm facing the camera with all
// fingers extended upward.
func OpenPalm() hand.Landmarks {
	lm := make(hand.Landmarks, hand.NumLandmarks)

	lm[hand.Wrist] = hand.Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	lm[hand.ThumbCMC] = hand.Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	lm[hand.ThumbMCP] = hand.Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	lm[hand.ThumbIP] = hand.Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	lm[hand.ThumbTip] = hand.Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	lm[hand.IndexMCP] = hand.Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	lm[hand.IndexPIP] = hand.Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	lm[hand.IndexDIP] = hand.Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	lm[hand.IndexTip] = hand.Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	lm[hand.MiddleMCP] = hand.Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	lm[hand.MiddlePIP] = hand.Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	lm[hand.MiddleDIP] = hand.Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	lm[hand.MiddleTip] = hand.Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	lm[hand.RingMCP] = hand.Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	lm[hand.RingPIP] = hand.Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	lm[hand.RingDIP] = hand.Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	lm[hand.RingTip] = hand.Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	lm[hand.PinkyMCP] = hand.Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	lm[hand.PinkyPIP] = hand.Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	lm[hand.PinkyDIP] = hand.Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	lm[hand.PinkyTip] = hand.Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return lm
}

// ThumbsUp returns landmarks of a right hand with the thumb extended upward
// and the other fingers curled.
func ThumbsUp() hand.Landmarks {
	lm := make(hand.Landmarks, hand.NumLandmarks)

	lm[hand.Wrist] = hand.Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	lm[hand.ThumbCMC] = hand.Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	lm[hand.ThumbMCP] = hand.Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	lm[hand.ThumbIP] = hand.Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	lm[hand.ThumbTip] = hand.Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	lm[hand.IndexMCP] = hand.Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	lm[hand.IndexPIP] = hand.Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	lm[hand.IndexDIP] = hand.Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	lm[hand.IndexTip] = hand.Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	lm[hand.MiddleMCP] = hand.Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	lm[hand.MiddlePIP] = hand.Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	lm[hand.MiddleDIP] = hand.Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	lm[hand.MiddleTip] = hand.Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	lm[hand.RingMCP] = hand.Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	lm[hand.RingPIP] = hand.Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	lm[hand.RingDIP] = hand.Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	lm[hand.RingTip] = hand.Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	lm[hand.PinkyMCP] = hand.Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	lm[hand.PinkyPIP] = hand.Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	lm[hand.PinkyDIP] = hand.Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	lm[hand.PinkyTip] = hand.Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return lm
}

// HalfFramePalm returns landmarks whose palm bounding box spans exactly half
// the frame in both axes, centered in the image.
func HalfFramePalm() hand.Landmarks {
	lm := make(hand.Landmarks, hand.NumLandmarks)

	lm[hand.Wrist] = hand.Point3D{X: 0.5, Y: 0.75}
	lm[hand.ThumbCMC] = hand.Point3D{X: 0.25, Y: 0.65}
	lm[hand.ThumbMCP] = hand.Point3D{X: 0.3, Y: 0.5}
	lm[hand.IndexMCP] = hand.Point3D{X: 0.4, Y: 0.3}
	lm[hand.MiddleMCP] = hand.Point3D{X: 0.5, Y: 0.25}
	lm[hand.RingMCP] = hand.Point3D{X: 0.6, Y: 0.3}
	lm[hand.PinkyMCP] = hand.Point3D{X: 0.75, Y: 0.4}

	lm[hand.ThumbIP] = hand.Point3D{X: 0.2, Y: 0.4}
	lm[hand.ThumbTip] = hand.Point3D{X: 0.15, Y: 0.3}

	finger := func(mcp, pip, dip, tip int) {
		base := lm[mcp]
		lm[pip] = hand.Point3D{X: base.X, Y: base.Y - 0.08}
		lm[dip] = hand.Point3D{X: base.X, Y: base.Y - 0.14}
		lm[tip] = hand.Point3D{X: base.X, Y: base.Y - 0.19}
	}
	finger(hand.IndexMCP, hand.IndexPIP, hand.IndexDIP, hand.IndexTip)
	finger(hand.MiddleMCP, hand.MiddlePIP, hand.MiddleDIP, hand.MiddleTip)
	finger(hand.RingMCP, hand.RingPIP, hand.RingDIP, hand.RingTip)
	finger(hand.PinkyMCP, hand.PinkyPIP, hand.PinkyDIP, hand.PinkyTip)

	return lm
}
