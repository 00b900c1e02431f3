package avatar

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/rig"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/testdata"
)

type mapRegistry map[string]*store.HandModel

func (r mapRegistry) GetByID(id string) (*store.HandModel, error) {
	if m, ok := r[id]; ok {
		return m, nil
	}
	return nil, store.ErrNotFound
}

func groups() [2]*scene.Node {
	return [2]*scene.Node{scene.NewNode("left"), scene.NewNode("right")}
}

func TestInstall(t *testing.T) {
	g := groups()
	r := Install(testdata.HandRig(), "default", rig.AxisY, g, nil)

	assert.Equal(t, "default", r.ModelID)
	assert.Equal(t, []string{"Default", "Fist", "Grab", "Point"}, r.Clips)

	for _, side := range hand.Sides {
		h := r.Hand(side)
		require.NotNil(t, h)
		require.Len(t, g[side].Children(), 1)
		assert.Same(t, h.Root, g[side].Children()[0])
		assert.Equal(t, int(rig.NumFingers)*rig.Segments, h.Bones.Len())
		assert.Equal(t, rig.AxisY, h.Bones.Axis)
		assert.Equal(t, hand.DefaultAnimation, h.Mixer.Current())
	}

	assert.Equal(t, mgl64.Vec3{-HandScale, HandScale, HandScale}, r.Hand(hand.Left).Root.Scale)
	assert.Equal(t, mgl64.Vec3{HandScale, HandScale, HandScale}, r.Hand(hand.Right).Root.Scale)
	assert.NotSame(t, r.Hand(hand.Left).Bones.Bone(rig.Index, 0), r.Hand(hand.Right).Bones.Bone(rig.Index, 0),
		"each side owns its own clone")
}

func TestInstall_ReplacesPrevious(t *testing.T) {
	g := groups()
	first := Install(testdata.HandRig(), "a", rig.AxisY, g, nil)
	second := Install(testdata.HandRig(), "b", rig.AxisZ, g, nil)

	for _, side := range hand.Sides {
		require.Len(t, g[side].Children(), 1)
		assert.Same(t, second.Hand(side).Root, g[side].Children()[0])
		assert.Nil(t, first.Hand(side).Root.Parent())
	}
}

func TestRig_NilHand(t *testing.T) {
	var r *Rig
	assert.Nil(t, r.Hand(hand.Left))
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hand.yaml"), testdata.HandRigYAML(), 0644))

	l := &Loader{
		Models: mapRegistry{
			"default": {ID: "default", Name: "Default", Path: "hand.yaml", BoneAxis: "xn"},
			"hinted":  {ID: "hinted", Name: "Hinted", Path: "hand.yaml"},
			"broken":  {ID: "broken", Name: "Broken", Path: "missing.yaml"},
		},
		Assets: scene.FileLoader{Dir: dir},
	}

	t.Run("registry axis wins", func(t *testing.T) {
		loaded, err := l.Load(context.Background(), "default")
		require.NoError(t, err)
		assert.Equal(t, rig.AxisXNeg, loaded.Axis)
		assert.Equal(t, "hand", loaded.Asset.Name)
	})

	t.Run("asset hint when registry is silent", func(t *testing.T) {
		loaded, err := l.Load(context.Background(), "hinted")
		require.NoError(t, err)
		assert.Equal(t, rig.AxisY, loaded.Axis)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := l.Load(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrModelNotFound)
	})

	t.Run("missing asset", func(t *testing.T) {
		_, err := l.Load(context.Background(), "broken")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrModelNotFound))
	})
}
