package tracker

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/testdata"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(pos mgl64.Vec3) Observation {
	return Observation{Position: pos, HasPosition: true}
}

func TestResolve_Staleness(t *testing.T) {
	tr := New()
	tr.Observe(hand.Left, hand.SourcePhone, at(mgl64.Vec3{1, 2, 3}), t0, 0.2)

	_, ok := tr.Resolve(hand.Left, t0.Add(999*time.Millisecond))
	assert.True(t, ok, "eligible just inside the window")

	_, ok = tr.Resolve(hand.Left, t0.Add(1001*time.Millisecond))
	assert.False(t, ok, "ineligible just past the window")

	_, ok = tr.Resolve(hand.Left, t0.Add(StaleAfter))
	assert.False(t, ok, "the window is exclusive")
}

func TestResolve_StalenessIndependentPerSource(t *testing.T) {
	tr := New()
	tr.Observe(hand.Left, hand.SourcePhone, at(mgl64.Vec3{1, 0, 0}), t0, 1)
	tr.Observe(hand.Left, hand.SourceCamera, at(mgl64.Vec3{2, 0, 0}), t0.Add(800*time.Millisecond), 1)

	pose, ok := tr.Resolve(hand.Left, t0.Add(1500*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, hand.SourceCamera, pose.Source)

	st := tr.State(hand.Left, hand.SourcePhone)
	assert.False(t, st.Eligible(t0.Add(1500*time.Millisecond)))
	assert.True(t, st.Active, "staleness never clears the active flag")
}

func TestResolve_MostRecentWins(t *testing.T) {
	tr := New()
	tr.Observe(hand.Right, hand.SourceCamera, at(mgl64.Vec3{1, 1, 1}), t0, 1)
	tr.Observe(hand.Right, hand.SourcePhone, at(mgl64.Vec3{5, 5, 5}), t0.Add(10*time.Millisecond), 1)

	pose, ok := tr.Resolve(hand.Right, t0.Add(10*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, hand.SourcePhone, pose.Source)
	assert.Equal(t, mgl64.Vec3{5, 5, 5}, pose.Position)

	// same timestamp: the later call still wins
	tr.Observe(hand.Right, hand.SourceCamera, at(mgl64.Vec3{1, 1, 1}), t0.Add(10*time.Millisecond), 1)
	pose, _ = tr.Resolve(hand.Right, t0.Add(10*time.Millisecond))
	assert.Equal(t, hand.SourceCamera, pose.Source)
}

func TestResolve_SidesIndependent(t *testing.T) {
	tr := New()
	tr.Observe(hand.Left, hand.SourcePhone, at(mgl64.Vec3{1, 0, 0}), t0, 1)

	_, ok := tr.Resolve(hand.Right, t0)
	assert.False(t, ok)

	pose, ok := tr.Resolve(hand.Left, t0)
	assert.True(t, ok)
	assert.Equal(t, hand.SourcePhone, pose.Source)
}

func TestResolve_Idle(t *testing.T) {
	tr := New()
	pose, ok := tr.Resolve(hand.Left, t0)
	assert.False(t, ok)
	assert.Equal(t, hand.DefaultAnimation, pose.Animation)
	assert.Equal(t, mgl64.QuatIdent(), pose.Rotation)
}

func TestObserve_CameraSmoothing(t *testing.T) {
	tr := New()

	seed := tr.State(hand.Left, hand.SourceCamera).Position
	assert.Equal(t, mgl64.Vec3{-0.5, 0, -1}, seed)

	tr.Observe(hand.Left, hand.SourceCamera, at(mgl64.Vec3{0.5, 0, -1}), t0, 0.25)
	got := tr.State(hand.Left, hand.SourceCamera).Position
	assert.InDelta(t, -0.25, got.X(), 1e-12)

	// phone is stored raw
	tr.Observe(hand.Left, hand.SourcePhone, at(mgl64.Vec3{0.5, 0, -1}), t0, 0.25)
	assert.Equal(t, mgl64.Vec3{0.5, 0, -1}, tr.State(hand.Left, hand.SourcePhone).Position)
}

func TestObserve_CameraRotationSlerp(t *testing.T) {
	tr := New()
	target := mgl64.QuatRotate(1.0, mgl64.Vec3{0, 1, 0})

	tr.Observe(hand.Left, hand.SourceCamera, Observation{Rotation: target, HasRotation: true}, t0, 0.5)
	got := tr.State(hand.Left, hand.SourceCamera).Rotation
	want := mgl64.QuatRotate(0.5, mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, want.W, got.W, 1e-9)
	assert.InDelta(t, want.V.Y(), got.V.Y(), 1e-9)
}

func TestObserve_MissingFields(t *testing.T) {
	tr := New()
	tr.Observe(hand.Left, hand.SourcePhone, at(mgl64.Vec3{1, 0, 0}), t0, 1)
	tr.Observe(hand.Left, hand.SourcePhone, Observation{Animation: "Fist"}, t0.Add(time.Millisecond), 1)

	pose, ok := tr.Resolve(hand.Left, t0.Add(time.Millisecond))
	require.True(t, ok)
	assert.False(t, pose.HasPosition)
	assert.False(t, pose.HasRotation)
	assert.Equal(t, "Fist", pose.Animation)
}

func TestObserve_LandmarksVerbatim(t *testing.T) {
	tr := New()
	lm := testdata.OpenPalm()
	tr.Observe(hand.Right, hand.SourceCamera, Observation{Landmarks: lm}, t0, 0.2)

	lm[0].X = 99 // caller mutation must not leak in
	pose, ok := tr.Resolve(hand.Right, t0)
	require.True(t, ok)
	assert.Equal(t, testdata.OpenPalm(), pose.Landmarks)
	assert.Equal(t, hand.DefaultAnimation, pose.Animation)
}

func TestDeactivate(t *testing.T) {
	tr := New()
	tr.Observe(hand.Left, hand.SourceCamera, at(mgl64.Vec3{1, 0, 0}), t0, 1)
	tr.Observe(hand.Right, hand.SourceCamera, at(mgl64.Vec3{1, 0, 0}), t0, 1)
	tr.Observe(hand.Right, hand.SourcePhone, at(mgl64.Vec3{2, 0, 0}), t0.Add(-time.Millisecond), 1)

	tr.Deactivate(hand.SourceCamera)

	_, ok := tr.Resolve(hand.Left, t0)
	assert.False(t, ok)

	pose, ok := tr.Resolve(hand.Right, t0)
	require.True(t, ok)
	assert.Equal(t, hand.SourcePhone, pose.Source)
}

func TestClearLandmarks(t *testing.T) {
	tr := New()
	tr.Observe(hand.Left, hand.SourcePhone, Observation{Landmarks: testdata.ThumbsUp()}, t0, 1)
	tr.Observe(hand.Right, hand.SourceCamera, Observation{Landmarks: testdata.OpenPalm()}, t0, 1)

	tr.ClearLandmarks()

	for _, side := range hand.Sides {
		pose, ok := tr.Resolve(side, t0)
		require.True(t, ok)
		assert.Nil(t, pose.Landmarks)
	}
}
