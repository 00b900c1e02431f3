// Package avatar installs hand models into the two hand groups of a player:
// one mirrored clone of the rig per side with its bone map and clip mixer.
package avatar

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/anim"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/rig"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/store"
)

// HandScale is the uniform scale applied to installed hand rigs. The left
// clone is mirrored on x.
const HandScale = 0.11

// ErrModelNotFound is returned when a model id is not in the registry.
var ErrModelNotFound = errors.New("hand model not found")

// Hand is the installed rig of one side.
type Hand struct {
	Side  hand.Side
	Root  *scene.Node
	Bones *rig.BoneMap
	Mixer *anim.Mixer
}

// Rig is a model installed on both sides.
type Rig struct {
	ModelID string
	Axis    rig.Axis
	Clips   []string
	Hands   [len(hand.Sides)]*Hand
}

// Hand returns the installed hand of side.
func (r *Rig) Hand(side hand.Side) *Hand {
	if r == nil {
		return nil
	}
	return r.Hands[side]
}

// Install replaces whatever hangs from each group with a fresh clone of the
// asset, rebuilds the bone maps and starts both sides on the default clip.
func Install(asset *scene.Asset, modelID string, axis rig.Axis, groups [len(hand.Sides)]*scene.Node, classify rig.Classifier) *Rig {
	r := &Rig{
		ModelID: modelID,
		Axis:    axis,
		Clips:   anim.SortedClips(asset.ClipNames()),
	}

	for _, side := range hand.Sides {
		root := asset.Root.Clone()
		if side == hand.Left {
			root.Scale = mgl64.Vec3{-HandScale, HandScale, HandScale}
		} else {
			root.Scale = mgl64.Vec3{HandScale, HandScale, HandScale}
		}

		group := groups[side]
		group.RemoveChildren()
		group.Add(root)

		mixer := anim.NewMixer(root, asset.Clips)
		mixer.Start(hand.DefaultAnimation)

		r.Hands[side] = &Hand{
			Side:  side,
			Root:  root,
			Bones: rig.Map(root, classify, axis),
			Mixer: mixer,
		}
	}
	return r
}

// Registry looks up hand models by id.
type Registry interface {
	GetByID(id string) (*store.HandModel, error)
}

// Loaded is a fetched and parsed model ready to install.
type Loaded struct {
	Model *store.HandModel
	Asset *scene.Asset
	Axis  rig.Axis
}

// Loader resolves model ids to parsed assets.
type Loader struct {
	Models Registry
	Assets scene.AssetLoader
}

// Load fetches the model registered under id. The registry's bone axis
// wins over the asset's own hint.
func (l *Loader) Load(ctx context.Context, id string) (*Loaded, error) {
	m, err := l.Models.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("model %q: %w", id, ErrModelNotFound)
		}
		return nil, fmt.Errorf("look up model %q: %w", id, err)
	}

	asset, err := l.Assets.LoadAsset(ctx, m.Path)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", id, err)
	}

	axis := m.BoneAxis
	if axis == "" {
		axis = asset.Axis
	}
	return &Loaded{Model: m, Asset: asset, Axis: rig.ParseAxis(axis)}, nil
}
