// Package anim blends named hand pose clips and cross-fades between them.
package anim

import (
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/scene"
)

// CrossFade is the duration of a transition between two clips.
const CrossFade = 200 * time.Millisecond

type action struct {
	clip   scene.Clip
	weight float64
	fadeIn bool
	active bool
}

// Mixer plays the clips of one hand rig. Clip poses are written to bones by
// name; bones no clip covers keep whatever rotation they last had.
type Mixer struct {
	actions map[string]*action
	order   []string
	bones   map[string]*scene.Node
	rest    map[string]mgl64.Quat
	current string
}

// NewMixer binds clips to the bones under root. Rest rotations are captured
// now and used where clip weights sum below one.
func NewMixer(root *scene.Node, clips []scene.Clip) *Mixer {
	m := &Mixer{
		actions: make(map[string]*action, len(clips)),
		bones:   make(map[string]*scene.Node),
		rest:    make(map[string]mgl64.Quat),
	}
	if root != nil {
		root.Traverse(func(n *scene.Node) {
			if _, dup := m.bones[n.Name]; !dup {
				m.bones[n.Name] = n
				m.rest[n.Name] = n.Rotation
			}
		})
	}
	for _, c := range clips {
		if _, dup := m.actions[c.Name]; dup {
			continue
		}
		m.actions[c.Name] = &action{clip: c}
		m.order = append(m.order, c.Name)
	}
	return m
}

// Has reports whether the mixer holds a clip named name.
func (m *Mixer) Has(name string) bool {
	_, ok := m.actions[name]
	return ok
}

// Current returns the clip most recently started, or "" before any.
func (m *Mixer) Current() string {
	return m.current
}

// Weight returns the blend weight of a clip.
func (m *Mixer) Weight(name string) float64 {
	if a, ok := m.actions[name]; ok {
		return a.weight
	}
	return 0
}

// Start plays name at full weight with no transition. It reports false for
// unknown clips.
func (m *Mixer) Start(name string) bool {
	a, ok := m.actions[name]
	if !ok {
		return false
	}
	for _, other := range m.actions {
		other.weight, other.active, other.fadeIn = 0, false, false
	}
	a.weight, a.active, a.fadeIn = 1, true, true
	m.current = name
	return true
}

// Play cross-fades from the current clip to name. Unknown clips are ignored
// and the current clip keeps playing; it reports whether a transition began.
func (m *Mixer) Play(name string) bool {
	if name == m.current {
		return false
	}
	next, ok := m.actions[name]
	if !ok {
		return false
	}
	if prev, ok := m.actions[m.current]; ok {
		prev.fadeIn = false
	}
	next.weight, next.active, next.fadeIn = 0, true, true
	m.current = name
	return true
}

// Update advances every fade by dt.
func (m *Mixer) Update(dt time.Duration) {
	step := float64(dt) / float64(CrossFade)
	for _, a := range m.actions {
		if !a.active {
			continue
		}
		if a.fadeIn {
			a.weight = min(1, a.weight+step)
		} else {
			a.weight = max(0, a.weight-step)
		}
	}
}

// Apply writes the blended pose of every playing clip to its bones. A clip
// that has finished fading out writes the rest pose once and stops.
func (m *Mixer) Apply() {
	type blend struct {
		q     mgl64.Quat
		total float64
	}
	poses := make(map[string]*blend)

	for _, name := range m.order {
		a := m.actions[name]
		if !a.active {
			continue
		}
		for bone, q := range a.clip.Pose {
			b, ok := poses[bone]
			if !ok {
				poses[bone] = &blend{q: q, total: a.weight}
				continue
			}
			b.total += a.weight
			if b.total > 0 {
				b.q = geometry.Slerp(b.q, q, a.weight/b.total)
			}
		}
		if !a.fadeIn && a.weight == 0 {
			a.active = false
		}
	}

	for bone, b := range poses {
		n, ok := m.bones[bone]
		if !ok {
			continue
		}
		if b.total < 1 {
			n.Rotation = geometry.Slerp(m.rest[bone], b.q, b.total)
		} else {
			n.Rotation = b.q
		}
	}
}

// SortedClips returns clip names with the default clip first and the rest
// in lexical order. The default clip is listed even when absent.
func SortedClips(names []string) []string {
	out := []string{hand.DefaultAnimation}
	rest := make([]string, 0, len(names))
	seen := map[string]bool{hand.DefaultAnimation: true}
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// ClipAt returns the 1-based entry of the sorted clip list, as chosen by
// the number keys.
func ClipAt(names []string, index int) (string, bool) {
	sorted := SortedClips(names)
	if index < 1 || index > len(sorted) {
		return "", false
	}
	return sorted[index-1], true
}
