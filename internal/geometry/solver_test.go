package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/testdata"
)

func TestWorldPosition_HalfFramePalm(t *testing.T) {
	cfg := config.DefaultRetarget()
	cfg.CameraFOVDeg = 60
	cfg.PalmSizeMeters = 0.08
	cfg.InverseDepth = true
	cfg.ZOffset = 0.8

	lm := testdata.HalfFramePalm()

	// palm covers half the frame: 30 degrees of a 60 degree field of view
	wantDistance := 0.04 / math.Tan(mgl64.DegToRad(15))

	distance, err := PalmDistance(lm, cfg)
	require.NoError(t, err)
	assert.InDelta(t, wantDistance, distance, 1e-9)

	pos, err := WorldPosition(lm, cfg)
	require.NoError(t, err)

	// centered palm: no lateral offset, only the eye height
	assert.InDelta(t, 0, pos.X(), 1e-4)
	assert.InDelta(t, cfg.EyeHeightOffset, pos.Y(), 1e-4)
	assert.InDelta(t, -(0.8 - wantDistance), pos.Z(), 1e-4)
	assert.InDelta(t, -0.650718, pos.Z(), 1e-4)
}

func TestWorldPosition_DepthModes(t *testing.T) {
	lm := testdata.HalfFramePalm()
	cfg := config.DefaultRetarget()

	cfg.InverseDepth = false
	direct, err := WorldPosition(lm, cfg)
	require.NoError(t, err)

	distance, _ := PalmDistance(lm, cfg)
	assert.InDelta(t, -(distance + cfg.ZOffset), direct.Z(), 1e-9)
}

func TestWorldPosition_LateralOffset(t *testing.T) {
	lm := testdata.HalfFramePalm()
	for i := range lm {
		lm[i].X -= 0.1 // shift palm toward the image's left edge
	}
	cfg := config.DefaultRetarget()

	pos, err := WorldPosition(lm, cfg)
	require.NoError(t, err)

	distance, _ := PalmDistance(lm, cfg)
	frustum := 2 * distance * math.Tan(mgl64.DegToRad(cfg.CameraFOVDeg/2))
	assert.InDelta(t, frustum*0.1*cfg.LateralSeparation, pos.X(), 1e-9)
}

func TestWorldPosition_Deterministic(t *testing.T) {
	cfg := config.DefaultRetarget()
	for _, lm := range []hand.Landmarks{testdata.OpenPalm(), testdata.ThumbsUp(), testdata.HalfFramePalm()} {
		a, errA := WorldPosition(lm, cfg)
		b, errB := WorldPosition(lm, cfg)
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, a, b)
	}
}

func TestWorldPosition_Errors(t *testing.T) {
	cfg := config.DefaultRetarget()

	t.Run("incomplete", func(t *testing.T) {
		_, err := WorldPosition(testdata.OpenPalm()[:10], cfg)
		assert.ErrorIs(t, err, ErrIncomplete)
	})

	t.Run("collapsed palm", func(t *testing.T) {
		lm := make(hand.Landmarks, hand.NumLandmarks)
		for i := range lm {
			lm[i] = hand.Point3D{X: 0.5, Y: 0.5}
		}
		_, err := WorldPosition(lm, cfg)
		assert.ErrorIs(t, err, ErrDegenerate)
	})
}

func TestRotation_UnitQuaternion(t *testing.T) {
	for _, lm := range []hand.Landmarks{testdata.OpenPalm(), testdata.ThumbsUp(), testdata.HalfFramePalm()} {
		for _, side := range hand.Sides {
			q, err := Rotation(lm, side)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, q.Len(), 1e-9, "side %s", side)
		}
	}
}

func TestRotation_Chirality(t *testing.T) {
	lm := testdata.OpenPalm()

	left, err := Rotation(lm, hand.Left)
	require.NoError(t, err)
	right, err := Rotation(lm, hand.Right)
	require.NoError(t, err)

	// The forward axis agrees; the up axis is flipped between hands.
	correctionInv := basisCorrection.Inverse()
	lf := left.Mul(correctionInv).Rotate(mgl64.Vec3{0, 0, 1})
	rf := right.Mul(correctionInv).Rotate(mgl64.Vec3{0, 0, 1})
	assert.InDelta(t, 1.0, lf.Dot(rf), 1e-9)

	lu := left.Mul(correctionInv).Rotate(mgl64.Vec3{0, 1, 0})
	ru := right.Mul(correctionInv).Rotate(mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, -1.0, lu.Dot(ru), 1e-9)
}

func TestRotation_ForwardFollowsIndex(t *testing.T) {
	lm := testdata.OpenPalm()
	q, err := Rotation(lm, hand.Right)
	require.NoError(t, err)

	want, ok := Direction(lm[hand.Wrist].Mirrored(), lm[hand.IndexMCP].Mirrored())
	require.True(t, ok)

	got := q.Mul(basisCorrection.Inverse()).Rotate(mgl64.Vec3{0, 0, 1})
	assert.InDelta(t, 1.0, got.Dot(want), 1e-9)
}

func TestRotation_Degenerate(t *testing.T) {
	lm := testdata.OpenPalm()
	lm[hand.IndexMCP] = lm[hand.Wrist]

	q, err := Rotation(lm, hand.Left)
	assert.ErrorIs(t, err, ErrDegenerate)
	assert.Equal(t, mgl64.QuatIdent(), q)
}

func TestSlerp_ShortestArc(t *testing.T) {
	a := mgl64.QuatIdent()
	b := mgl64.QuatRotate(0.5, mgl64.Vec3{0, 1, 0}).Scale(-1) // same rotation, opposite sign

	mid := Slerp(a, b, 0.5)
	angle := 2 * math.Acos(math.Min(1, math.Abs(mid.W)))
	assert.InDelta(t, 0.25, angle, 1e-6)
}

func TestTransformDirection(t *testing.T) {
	m := mgl64.Translate3D(5, 5, 5).Mul4(mgl64.HomogRotate3DY(math.Pi / 2)).Mul4(mgl64.Scale3D(2, 2, 2))

	got, ok := TransformDirection(m, mgl64.Vec3{0, 0, 1})
	require.True(t, ok)
	assert.InDelta(t, 1.0, got.X(), 1e-9)
	assert.InDelta(t, 0.0, got.Z(), 1e-9)

	_, ok = TransformDirection(m, mgl64.Vec3{})
	assert.False(t, ok)
}
