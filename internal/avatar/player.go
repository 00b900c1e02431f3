package avatar

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/rig"
	"github.com/ayusman/mudra/internal/scene"
)

// EyeHeight is the default height of the body node above the floor.
const EyeHeight = 2.2

// Anchors are the rest positions of the hand groups relative to the head.
var Anchors = [len(hand.Sides)]mgl64.Vec3{
	hand.Left:  {-0.6, -0.2, -1.0},
	hand.Right: {0.6, -0.2, -1.0},
}

// Player is the transform skeleton shared by the local viewer and remote
// peers: a body node carrying position and yaw, a head node carrying pitch
// and one group per hand. Hand groups start attached to the head.
type Player struct {
	Body   *scene.Node
	Head   *scene.Node
	Groups [len(hand.Sides)]*scene.Node
	Rig    *Rig
}

// NewPlayer builds a player standing at the origin with hands at rest.
func NewPlayer() *Player {
	p := &Player{
		Body: scene.NewNode("body"),
		Head: scene.NewNode("head"),
	}
	p.Body.Position = mgl64.Vec3{0, EyeHeight, 0}
	p.Body.Add(p.Head)

	for _, side := range hand.Sides {
		g := scene.NewNode(side.String() + "_hand")
		g.Position = Anchors[side]
		p.Head.Add(g)
		p.Groups[side] = g
	}
	return p
}

// SetView places the body and turns it by yaw about y; the head pitches
// about x.
func (p *Player) SetView(pos mgl64.Vec3, yaw, pitch float64) {
	p.Body.Position = pos
	p.Body.Rotation = mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0})
	p.Head.Rotation = mgl64.QuatRotate(pitch, mgl64.Vec3{1, 0, 0})
}

// Install puts a loaded model on both hands, replacing the previous rig.
func (p *Player) Install(l *Loaded, classify rig.Classifier) *Rig {
	p.Rig = Install(l.Asset, l.Model.ID, l.Axis, p.Groups, classify)
	return p.Rig
}

// ModelID returns the id of the installed model, or "".
func (p *Player) ModelID() string {
	if p.Rig == nil {
		return ""
	}
	return p.Rig.ModelID
}
