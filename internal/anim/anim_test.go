package anim

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/testdata"
)

const frame = 16 * time.Millisecond

func TestMixer_StartAndCrossFade(t *testing.T) {
	asset := testdata.HandRig()
	m := NewMixer(asset.Root, asset.Clips)

	require.True(t, m.Start(hand.DefaultAnimation))
	assert.Equal(t, 1.0, m.Weight(hand.DefaultAnimation))

	require.True(t, m.Play("Fist"))
	assert.Equal(t, "Fist", m.Current())
	assert.Zero(t, m.Weight("Fist"))

	m.Update(100 * time.Millisecond)
	assert.InDelta(t, 0.5, m.Weight("Fist"), 1e-9)
	assert.InDelta(t, 0.5, m.Weight(hand.DefaultAnimation), 1e-9)

	m.Update(100 * time.Millisecond)
	assert.InDelta(t, 1.0, m.Weight("Fist"), 1e-9)
	assert.Zero(t, m.Weight(hand.DefaultAnimation))
}

func TestMixer_UnknownClipKeepsCurrent(t *testing.T) {
	asset := testdata.HandRig()
	m := NewMixer(asset.Root, asset.Clips)
	m.Start(hand.DefaultAnimation)

	assert.False(t, m.Play("Wave"))
	assert.Equal(t, hand.DefaultAnimation, m.Current())
	assert.False(t, m.Play(hand.DefaultAnimation), "already playing")
	assert.False(t, m.Start("Wave"))
}

func TestMixer_ApplyBlendsTowardClip(t *testing.T) {
	asset := testdata.HandRig()
	m := NewMixer(asset.Root, asset.Clips)
	m.Start(hand.DefaultAnimation)
	index := asset.Root.Find("index1")
	fist := asset.Clips[1].Pose["index1"]

	m.Play("Fist")
	m.Update(100 * time.Millisecond)
	m.Apply()

	half := mgl64.QuatSlerp(mgl64.QuatIdent(), fist, 0.5)
	assert.InDelta(t, 1.0, math.Abs(index.Rotation.Dot(half)), 1e-9)

	m.Update(200 * time.Millisecond)
	m.Apply()
	assert.InDelta(t, 1.0, math.Abs(index.Rotation.Dot(fist)), 1e-9)
}

func TestMixer_FadeOutRestoresRest(t *testing.T) {
	asset := testdata.HandRig()
	m := NewMixer(asset.Root, asset.Clips)
	m.Start("Grab")
	wrist := asset.Root.Find("wrist")

	m.Apply()
	require.NotEqual(t, mgl64.QuatIdent(), wrist.Rotation)

	m.Play(hand.DefaultAnimation)
	for i := 0; i < 20; i++ {
		m.Update(frame)
		m.Apply()
	}
	assert.InDelta(t, 1.0, math.Abs(wrist.Rotation.Dot(mgl64.QuatIdent())), 1e-9)
}

func TestMixer_UntouchedBonesKeepRotation(t *testing.T) {
	asset := testdata.HandRig()
	m := NewMixer(asset.Root, asset.Clips)
	m.Start("Point")

	index := asset.Root.Find("index1")
	custom := mgl64.QuatRotate(0.7, mgl64.Vec3{0, 0, 1})
	index.Rotation = custom

	m.Update(frame)
	m.Apply()
	assert.Equal(t, custom, index.Rotation, "Point does not animate the index finger")
}

func TestSortedClips(t *testing.T) {
	got := SortedClips([]string{"Point", "Fist", "Default", "Grab"})
	assert.Equal(t, []string{"Default", "Fist", "Grab", "Point"}, got)

	assert.Equal(t, []string{"Default"}, SortedClips(nil))
}

func TestClipAt(t *testing.T) {
	names := testdata.HandRig().ClipNames()

	got, ok := ClipAt(names, 1)
	assert.True(t, ok)
	assert.Equal(t, "Default", got)

	got, ok = ClipAt(names, 2)
	assert.True(t, ok)
	assert.Equal(t, "Fist", got)

	_, ok = ClipAt(names, 9)
	assert.False(t, ok)
	_, ok = ClipAt(names, 0)
	assert.False(t, ok)
}

func TestSelector(t *testing.T) {
	tests := []struct {
		name     string
		manual   string
		external string
		fresh    bool
		want     string
	}{
		{"fresh source wins", "Fist", "Point", true, "Point"},
		{"stale source ignored", "Fist", "Point", false, "Fist"},
		{"no manual", "", "Point", false, "Default"},
		{"fresh but empty tag", "Grab", "", true, "Grab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Selector{Manual: tt.manual}
			assert.Equal(t, tt.want, s.Select(tt.external, tt.fresh))
		})
	}

	s := Selector{Manual: "Fist"}
	s.Reset()
	assert.Equal(t, hand.DefaultAnimation, s.Manual)
}
