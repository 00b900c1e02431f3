// Package tracker holds the per-hand, per-source input state and decides
// which source drives each hand on a given frame.
package tracker

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/hand"
)

// StaleAfter is how long a source stays eligible after its last update.
const StaleAfter = 1000 * time.Millisecond

// Observation is one update from an input source. Absent fields leave the
// matching HasX flag false.
type Observation struct {
	Position    mgl64.Vec3
	Rotation    mgl64.Quat
	HasPosition bool
	HasRotation bool
	Landmarks   hand.Landmarks
	Animation   string
}

// State is the stored input of one source for one hand.
type State struct {
	Position    mgl64.Vec3
	Rotation    mgl64.Quat
	HasPosition bool
	HasRotation bool
	Landmarks   hand.Landmarks
	Animation   string
	Updated     time.Time
	Active      bool

	seq uint64
}

// Eligible reports whether the state may drive its hand at now.
func (s *State) Eligible(now time.Time) bool {
	return s.Active && now.Sub(s.Updated) < StaleAfter
}

// cameraSeed is where camera smoothing starts before the first detection.
var cameraSeed = [...]mgl64.Vec3{
	hand.Left:  {-0.5, 0, -1},
	hand.Right: {0.5, 0, -1},
}

// Tracker owns one State per (side, source). It is not safe for concurrent
// use; the frame loop is its only caller.
type Tracker struct {
	states [len(hand.Sides)][hand.NumSources]State
	seq    uint64
}

// New creates a tracker with every source inactive.
func New() *Tracker {
	t := &Tracker{}
	for _, side := range hand.Sides {
		for _, src := range hand.Sources {
			t.states[side][src] = State{
				Rotation:  mgl64.QuatIdent(),
				Animation: hand.DefaultAnimation,
			}
		}
		t.states[side][hand.SourceCamera].Position = cameraSeed[side]
	}
	return t
}

// Observe records an observation for (side, src) at now. The camera source
// is smoothed toward the observation by lerp; phone and VR values are
// stored raw because the consumer smooths them.
func (t *Tracker) Observe(side hand.Side, src hand.Source, obs Observation, now time.Time, lerp float64) {
	st := &t.states[side][src]
	t.seq++

	st.Active = true
	st.Updated = now
	st.seq = t.seq

	st.HasPosition = obs.HasPosition
	if obs.HasPosition {
		if src == hand.SourceCamera {
			st.Position = geometry.Lerp(st.Position, obs.Position, lerp)
		} else {
			st.Position = obs.Position
		}
	}

	st.HasRotation = obs.HasRotation
	if obs.HasRotation {
		if src == hand.SourceCamera {
			st.Rotation = geometry.Slerp(st.Rotation, obs.Rotation, lerp)
		} else {
			st.Rotation = obs.Rotation.Normalize()
		}
	}

	st.Landmarks = obs.Landmarks.Clone()

	st.Animation = obs.Animation
	if st.Animation == "" {
		st.Animation = hand.DefaultAnimation
	}
}

// Resolve returns the fused pose of side at now: the most recently updated
// eligible source wins. It reports false when no source is eligible.
func (t *Tracker) Resolve(side hand.Side, now time.Time) (hand.Pose, bool) {
	var best *State
	var bestSrc hand.Source
	for _, src := range hand.Sources {
		st := &t.states[side][src]
		if !st.Eligible(now) {
			continue
		}
		if best == nil || st.seq > best.seq {
			best, bestSrc = st, src
		}
	}
	if best == nil {
		return hand.Pose{Rotation: mgl64.QuatIdent(), Animation: hand.DefaultAnimation}, false
	}

	return hand.Pose{
		Position:    best.Position,
		Rotation:    best.Rotation,
		HasPosition: best.HasPosition,
		HasRotation: best.HasRotation,
		Landmarks:   best.Landmarks,
		Animation:   best.Animation,
		Source:      bestSrc,
	}, true
}

// Deactivate marks src inactive for both hands so arbitration can never
// honor its last value again. Smoothed values are kept.
func (t *Tracker) Deactivate(src hand.Source) {
	for _, side := range hand.Sides {
		st := &t.states[side][src]
		st.Active = false
		st.HasPosition = false
		st.HasRotation = false
	}
}

// ClearLandmarks drops the stored landmarks of every source.
func (t *Tracker) ClearLandmarks() {
	for _, side := range hand.Sides {
		for _, src := range hand.Sources {
			t.states[side][src].Landmarks = nil
		}
	}
}

// State returns a copy of the stored state for (side, src).
func (t *Tracker) State(side hand.Side, src hand.Source) State {
	return t.states[side][src]
}
