// Package fusion runs the per-frame pose fusion for the local player: it
// arbitrates input sources, moves the hand groups, retargets fingers and
// selects the clip each hand plays.
package fusion

import (
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/anim"
	"github.com/ayusman/mudra/internal/avatar"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/retarget"
	"github.com/ayusman/mudra/internal/rig"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/internal/wire"
)

const (
	// TrackBlend is how far a tracked group moves toward its target per frame.
	TrackBlend = 0.2
	// IdleRange bounds how far an idle group may sit from its anchor.
	IdleRange = 0.6
	// IdleReturnRate scales the per-second ease of an idle group.
	IdleReturnRate = 8.0
	// IdleRotationBlend eases an idle group's rotation toward identity.
	IdleRotationBlend = 0.1
	// DragScale converts pointer movement into group displacement.
	DragScale = 0.005
)

// sourceScale multiplies a source position before the anchor is added.
var sourceScale = mgl64.Vec3{2.0, 2.0, 2.5}

// Options configure a Loop.
type Options struct {
	Logger     *slog.Logger
	Classifier rig.Classifier
}

// Loop is the local pose fusion loop. All methods must be called from the
// goroutine that owns the frame loop.
type Loop struct {
	log      *slog.Logger
	live     *config.Live
	tracker  *tracker.Tracker
	player   *avatar.Player
	classify rig.Classifier

	frame Frame
	vr    bool

	manual    bool
	manualFor hand.Side
	selectors [len(hand.Sides)]anim.Selector

	poses   [len(hand.Sides)]hand.Pose
	fresh   [len(hand.Sides)]bool
	sourced [len(hand.Sides)]bool
	lastSrc [len(hand.Sides)]hand.Source
}

// New creates a loop driving player from the sources recorded in tr.
func New(live *config.Live, tr *tracker.Tracker, player *avatar.Player, opts Options) *Loop {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	l := &Loop{
		log:      log,
		live:     live,
		tracker:  tr,
		player:   player,
		classify: opts.Classifier,
		frame:    FrameHead,
	}
	for _, side := range hand.Sides {
		l.selectors[side].Reset()
		l.poses[side] = hand.Pose{Rotation: mgl64.QuatIdent(), Animation: hand.DefaultAnimation}
	}
	return l
}

// Player returns the player the loop drives.
func (l *Loop) Player() *avatar.Player {
	return l.player
}

// Tracker returns the source tracker the loop reads.
func (l *Loop) Tracker() *tracker.Tracker {
	return l.tracker
}

// Frame returns the current parent frame of the hand groups.
func (l *Loop) Frame() Frame {
	return l.frame
}

// Observe records a source observation, smoothing camera input with the
// current lerp factor.
func (l *Loop) Observe(side hand.Side, src hand.Source, obs tracker.Observation, now time.Time) {
	l.tracker.Observe(side, src, obs, now, l.live.Get().LerpFactor)
}

// Update advances the loop by one frame.
func (l *Loop) Update(now time.Time, dt time.Duration) {
	cfg := l.live.Get()

	for _, side := range hand.Sides {
		pose, fresh := l.tracker.Resolve(side, now)
		l.note(side, pose, fresh)
		l.poses[side], l.fresh[side] = pose, fresh

		if l.vr {
			l.followController(side, now)
		} else {
			l.updateGroup(side, pose, fresh, dt)
		}
	}

	l.animate(cfg, dt)
}

// note logs source transitions and remembers the last driving source.
func (l *Loop) note(side hand.Side, pose hand.Pose, fresh bool) {
	switch {
	case fresh && (!l.fresh[side] || l.poses[side].Source != pose.Source):
		l.log.Info("fusion: hand tracking", "side", side, "source", pose.Source)
	case !fresh && l.fresh[side]:
		l.log.Info("fusion: hand idle", "side", side, "last_source", l.poses[side].Source)
	}
	if fresh {
		l.sourced[side] = true
		l.lastSrc[side] = pose.Source
	}
}

func (l *Loop) updateGroup(side hand.Side, pose hand.Pose, fresh bool, dt time.Duration) {
	group := l.player.Groups[side]
	anchor := avatar.Anchors[side]
	manual := l.manual && l.manualFor == side

	if manual {
		return
	}

	if fresh && pose.HasPosition {
		offsetX := 0.0
		if pose.Source == hand.SourcePhone {
			offsetX = anchor.X()
		}
		target := mgl64.Vec3{
			pose.Position.X()*sourceScale.X() + offsetX,
			pose.Position.Y()*sourceScale.Y() + anchor.Y(),
			pose.Position.Z()*sourceScale.Z() + anchor.Z(),
		}
		group.Position = geometry.Lerp(group.Position, target, TrackBlend)
		if pose.HasRotation {
			group.Rotation = geometry.Slerp(group.Rotation, pose.Rotation, TrackBlend)
		}
		return
	}

	t := min(1, dt.Seconds()*IdleReturnRate)
	x := clamp(group.Position.X(), anchor.X()-IdleRange, anchor.X()+IdleRange)
	y := clamp(group.Position.Y(), anchor.Y()-IdleRange, anchor.Y()+IdleRange)
	group.Position = mgl64.Vec3{
		lerp(group.Position.X(), x, t),
		lerp(group.Position.Y(), y, t),
		group.Position.Z(),
	}
	group.Rotation = geometry.Slerp(group.Rotation, mgl64.QuatIdent(), IdleRotationBlend)
}

// followController copies the VR controller pose onto the group verbatim.
func (l *Loop) followController(side hand.Side, now time.Time) {
	st := l.tracker.State(side, hand.SourceVR)
	if !st.Eligible(now) {
		return
	}
	group := l.player.Groups[side]
	if st.HasPosition {
		group.Position = st.Position
	}
	if st.HasRotation {
		group.Rotation = st.Rotation
	}
}

// animate runs the clip mixers, layers finger retargeting over them and
// moves each hand toward the clip it should play.
func (l *Loop) animate(cfg config.Retarget, dt time.Duration) {
	r := l.player.Rig
	if r == nil {
		return
	}
	reference := l.player.Head.World()
	opts := retarget.Options{DisableThumbBase: cfg.DisableThumbBase}

	for _, side := range hand.Sides {
		h := r.Hand(side)
		if h == nil {
			continue
		}
		h.Mixer.Update(dt)
		h.Mixer.Apply()

		pose, fresh := l.poses[side], l.fresh[side]
		if fresh && len(pose.Landmarks) > 0 {
			retarget.Apply(h.Bones, pose.Landmarks, reference, opts)
		}

		target := l.selectors[side].Select(pose.Animation, fresh)
		if h.Mixer.Play(target) {
			l.log.Debug("fusion: clip change", "side", side, "clip", target)
		}
	}
}

// BeginVR switches the hand groups to the body frame and lets controller
// poses drive them directly.
func (l *Loop) BeginVR() error {
	if err := l.setFrame(FrameBody); err != nil {
		return err
	}
	l.vr = true
	return nil
}

// EndVR returns the hand groups to the head frame.
func (l *Loop) EndVR() error {
	if err := l.setFrame(FrameHead); err != nil {
		return err
	}
	l.vr = false
	return nil
}

func (l *Loop) setFrame(to Frame) error {
	if err := transition(l.frame, to); err != nil {
		return err
	}
	parent := l.player.Head
	if to == FrameBody {
		parent = l.player.Body
	}
	for _, g := range l.player.Groups {
		parent.Add(g)
	}
	l.log.Info("fusion: hand frame changed", "from", l.frame, "to", to)
	l.frame = to
	return nil
}

// SetController records a VR controller or hand-tracking pose for side.
func (l *Loop) SetController(side hand.Side, pos mgl64.Vec3, rot mgl64.Quat, lm hand.Landmarks, now time.Time) {
	l.Observe(side, hand.SourceVR, tracker.Observation{
		Position:    pos,
		Rotation:    rot,
		HasPosition: true,
		HasRotation: true,
		Landmarks:   lm,
	}, now)
}

// SetManual puts side under direct manual control, or releases manual
// control when on is false. Only one side is manual at a time.
func (l *Loop) SetManual(side hand.Side, on bool) {
	if !on {
		if l.manualFor == side {
			l.manual = false
		}
		return
	}
	l.manual, l.manualFor = true, side
}

// ToggleManual flips manual control of side.
func (l *Loop) ToggleManual(side hand.Side) {
	l.SetManual(side, !(l.manual && l.manualFor == side))
}

// Manual returns the side under manual control.
func (l *Loop) Manual() (hand.Side, bool) {
	return l.manualFor, l.manual
}

// DragManual moves the manual side's group by a pointer delta in pixels.
func (l *Loop) DragManual(dx, dy float64) {
	if !l.manual {
		return
	}
	g := l.player.Groups[l.manualFor]
	g.Position = g.Position.Add(mgl64.Vec3{dx * DragScale, -dy * DragScale, 0})
}

// SelectManualClip picks the 1-based clip of the sorted clip list for the
// manual side. It reports false when no side is manual or the index is out
// of range.
func (l *Loop) SelectManualClip(index int) bool {
	if !l.manual || l.player.Rig == nil {
		return false
	}
	name, ok := anim.ClipAt(l.player.Rig.Clips, index)
	if !ok {
		return false
	}
	l.selectors[l.manualFor].Manual = name
	return true
}

// ManualClip returns the locally selected clip of side.
func (l *Loop) ManualClip(side hand.Side) string {
	return l.selectors[side].Select("", false)
}

// InstallModel installs a loaded model, replacing the previous rig. Finger
// retargeting resumes on the next frame against the new bone map.
func (l *Loop) InstallModel(loaded *avatar.Loaded) {
	r := l.player.Install(loaded, l.classify)
	l.log.Info("fusion: hand model installed",
		"model", r.ModelID,
		"axis", r.Axis,
		"bones", r.Hand(hand.Left).Bones.Len(),
		"clips", len(r.Clips),
	)
}

// ModelID returns the model the player shows.
func (l *Loop) ModelID() string {
	return l.player.ModelID()
}

// StopCamera deactivates the camera source for both hands. A hand last
// driven by the camera snaps back to its anchor.
func (l *Loop) StopCamera() {
	l.tracker.Deactivate(hand.SourceCamera)
	for _, side := range hand.Sides {
		if l.sourced[side] && l.lastSrc[side] == hand.SourceCamera {
			l.player.Groups[side].Position = avatar.Anchors[side]
		}
	}
	l.log.Info("fusion: camera source stopped")
}

// StopFingers drops every stored landmark set and resets the manual clip
// choices to the default.
func (l *Loop) StopFingers() {
	l.tracker.ClearLandmarks()
	for _, side := range hand.Sides {
		l.selectors[side].Reset()
		l.poses[side].Landmarks = nil
	}
}

// Snapshot returns the presence state to publish for this frame. Landmarks
// are included only while fresh.
func (l *Loop) Snapshot(yaw, pitch float64) wire.Snapshot {
	var s wire.Snapshot
	s.SetView(l.player.Body.Position, yaw, pitch)
	for _, side := range hand.Sides {
		g := l.player.Groups[side]
		clip := hand.DefaultAnimation
		if h := l.player.Rig.Hand(side); h != nil && h.Mixer.Current() != "" {
			clip = h.Mixer.Current()
		}
		var lm hand.Landmarks
		if l.fresh[side] {
			lm = l.poses[side].Landmarks
		}
		s.SetHand(side, g.Position, g.Rotation, clip, lm)
	}
	s.HandModel = l.ModelID()
	return s
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
