// Package retarget rotates mapped finger bones toward the directions implied
// by hand landmarks.
package retarget

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/rig"
)

// BlendFactor is how far each bone moves toward its target per pass.
const BlendFactor = 0.4

// Options tune one retarget pass.
type Options struct {
	// DisableThumbBase leaves the thumb's segment 0 bone untouched.
	DisableThumbBase bool
	// Blend overrides BlendFactor when positive.
	Blend float64
}

// Apply runs one retarget pass over every mapped bone in bm. reference is
// the world transform of the frame the landmarks were captured in: the
// viewer camera for local hands or a peer's head for remote ones. Segments
// with a missing landmark, an empty slot or a degenerate direction are
// skipped. It returns the number of bones written.
func Apply(bm *rig.BoneMap, lm hand.Landmarks, reference mgl64.Mat4, opts Options) int {
	if bm == nil || len(lm) == 0 {
		return 0
	}
	blend := opts.Blend
	if blend <= 0 {
		blend = BlendFactor
	}
	axis := bm.Axis.Vec3()

	written := 0
	for _, f := range rig.Fingers {
		chain := rig.FingerLandmarks[f]
		for seg := 0; seg < rig.Segments; seg++ {
			bone := bm.Bone(f, seg)
			if bone == nil {
				continue
			}
			if f == rig.Thumb && seg == 0 && opts.DisableThumbBase {
				continue
			}
			from, to := chain[seg], chain[seg+1]
			if !lm.Has(from) || !lm.Has(to) {
				continue
			}

			dir, ok := geometry.Direction(lm[from].Mirrored(), lm[to].Mirrored())
			if !ok {
				continue
			}
			if dir, ok = geometry.TransformDirection(reference, dir); !ok {
				continue
			}
			if parent := bone.Parent(); parent != nil {
				if dir, ok = geometry.TransformDirection(parent.World().Inv(), dir); !ok {
					continue
				}
			}

			target := mgl64.QuatBetweenVectors(axis, dir)
			bone.Rotation = geometry.Slerp(bone.Rotation, target, blend)
			written++
		}
	}
	return written
}
