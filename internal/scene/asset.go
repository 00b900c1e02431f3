package scene

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRig is returned when a rig description cannot form a hierarchy.
var ErrInvalidRig = errors.New("invalid rig")

// Asset is a loaded hand model: its node tree and the animation clips it
// ships with.
type Asset struct {
	Name  string
	Root  *Node
	Clips []Clip
	Axis  string // optional forward axis hint, overridden by the registry
}

// Clip is a named hand pose: target local rotations keyed by bone name.
// Bones a clip does not list are left to other clips or the rest pose.
type Clip struct {
	Name string
	Pose map[string]mgl64.Quat
}

// ClipNames returns the names of the asset's clips in file order.
func (a *Asset) ClipNames() []string {
	names := make([]string, len(a.Clips))
	for i, c := range a.Clips {
		names[i] = c.Name
	}
	return names
}

// AssetLoader loads a hand model asset by path.
type AssetLoader interface {
	LoadAsset(ctx context.Context, path string) (*Asset, error)
}

type rigFile struct {
	Name  string    `yaml:"name"`
	Axis  string    `yaml:"bone_axis"`
	Clips []rigClip `yaml:"clips"`
	Nodes []rigNode `yaml:"nodes"`
}

type rigClip struct {
	Name string               `yaml:"name"`
	Pose map[string][]float64 `yaml:"pose"`
}

type rigNode struct {
	Name     string     `yaml:"name"`
	Parent   string     `yaml:"parent"`
	Bone     *bool      `yaml:"bone"`
	Position [3]float64 `yaml:"position"`
	Rotation []float64  `yaml:"rotation"` // x, y, z, w
	Scale    []float64  `yaml:"scale"`
}

// ParseRig builds an asset from a YAML rig description. Nodes must be listed
// after their parent; the first node without a parent becomes the root and
// any further parentless nodes hang from it.
func ParseRig(data []byte) (*Asset, error) {
	var f rigFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rig: %w", err)
	}
	if len(f.Nodes) == 0 {
		return nil, fmt.Errorf("rig %q has no nodes: %w", f.Name, ErrInvalidRig)
	}

	byName := make(map[string]*Node, len(f.Nodes))
	var root *Node
	for _, rn := range f.Nodes {
		if rn.Name == "" {
			return nil, fmt.Errorf("rig %q: unnamed node: %w", f.Name, ErrInvalidRig)
		}
		if _, dup := byName[rn.Name]; dup {
			return nil, fmt.Errorf("rig %q: duplicate node %q: %w", f.Name, rn.Name, ErrInvalidRig)
		}

		n := NewNode(rn.Name)
		n.Bone = rn.Bone == nil || *rn.Bone
		n.Position = mgl64.Vec3(rn.Position)
		if len(rn.Rotation) == 4 {
			n.Rotation = quat(rn.Rotation)
		}
		if len(rn.Scale) == 3 {
			n.Scale = mgl64.Vec3{rn.Scale[0], rn.Scale[1], rn.Scale[2]}
		}

		switch {
		case rn.Parent != "":
			p, ok := byName[rn.Parent]
			if !ok {
				return nil, fmt.Errorf("rig %q: node %q has unknown parent %q: %w", f.Name, rn.Name, rn.Parent, ErrInvalidRig)
			}
			p.Add(n)
		case root == nil:
			root = n
		default:
			root.Add(n)
		}
		byName[rn.Name] = n
	}

	clips := make([]Clip, 0, len(f.Clips))
	for _, rc := range f.Clips {
		c := Clip{Name: rc.Name, Pose: make(map[string]mgl64.Quat, len(rc.Pose))}
		for bone, q := range rc.Pose {
			if _, ok := byName[bone]; !ok || len(q) != 4 {
				return nil, fmt.Errorf("rig %q: clip %q has bad track %q: %w", f.Name, rc.Name, bone, ErrInvalidRig)
			}
			c.Pose[bone] = quat(q)
		}
		clips = append(clips, c)
	}

	return &Asset{Name: f.Name, Root: root, Clips: clips, Axis: f.Axis}, nil
}

// quat converts an x, y, z, w slice into a unit quaternion.
func quat(v []float64) mgl64.Quat {
	return mgl64.Quat{W: v[3], V: mgl64.Vec3{v[0], v[1], v[2]}}.Normalize()
}

// FileLoader reads rig descriptions from a directory.
type FileLoader struct {
	Dir string
}

// LoadAsset reads and parses the rig at path, relative to the loader's
// directory unless absolute.
func (l FileLoader) LoadAsset(ctx context.Context, path string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) && l.Dir != "" {
		path = filepath.Join(l.Dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rig %s: %w", path, err)
	}
	return ParseRig(data)
}
