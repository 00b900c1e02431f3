// Package scene is the transform hierarchy the hand pipeline writes into:
// groups, skeleton bones and the reference frames they hang from.
package scene

import "github.com/go-gl/mathgl/mgl64"

// Node is one transform in the hierarchy. World matrices are computed on
// demand from the local transforms of the node and its ancestors.
type Node struct {
	Name     string
	Bone     bool
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3

	parent   *Node
	children []*Node
}

// NewNode creates a node at the origin with identity rotation and unit scale.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// NewBone creates a skeleton bone node.
func NewBone(name string) *Node {
	n := NewNode(name)
	n.Bone = true
	return n
}

// Parent returns the node this one hangs from, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Add attaches child to n, detaching it from any previous parent first.
func (n *Node) Add(child *Node) {
	if child == nil || child == n || child.parent == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n. It reports whether child was attached.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// RemoveChildren detaches every child of n.
func (n *Node) RemoveChildren() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

// Local returns the node's transform relative to its parent: T * R * S.
func (n *Node) Local() mgl64.Mat4 {
	t := mgl64.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z())
	r := n.Rotation.Normalize().Mat4()
	s := mgl64.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// World returns the node's transform relative to the hierarchy root.
func (n *Node) World() mgl64.Mat4 {
	m := n.Local()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Local().Mul4(m)
	}
	return m
}

// Traverse visits n and its descendants depth first, parents before children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Find returns the first node in the subtree with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) {
		if found == nil && c.Name == name {
			found = c
		}
	})
	return found
}

// Clone deep-copies the subtree rooted at n. The copy has no parent.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:     n.Name,
		Bone:     n.Bone,
		Position: n.Position,
		Rotation: n.Rotation,
		Scale:    n.Scale,
	}
	for _, child := range n.children {
		c.Add(child.Clone())
	}
	return c
}
