package bake

import (
	"github.com/Faultbox/character2d/pkg/math"
	"github.com/Faultbox/character2d/pkg/sprite"
)

// Element ids inside a Description.
type (
	VertexID   int32
	InstanceID int32
	GroupID    int32
)

// Instance is a use of a vertex by a triangle corner, carrying the
// per-corner attributes.
type Instance struct {
	Vertex VertexID
	Normal math.Vec3
	UV     math.Vec2
	Color  math.Vec4
}

// Triangle references three instances and the polygon group it belongs to.
type Triangle struct {
	Corners [3]InstanceID
	Group   GroupID
}

// PolygonGroup is a partition of triangles sharing one material slot.
type PolygonGroup struct {
	Name   string
	Sprite *sprite.Sprite
}

// Description is the accumulating mesh buffer built by one bake.
type Description struct {
	Positions []math.Vec3
	Instances []Instance
	Triangles []Triangle
	Groups    []PolygonGroup

	normalized bool
}

// NewDescription returns an empty description.
func NewDescription() *Description {
	return &Description{}
}

func (d *Description) mutable() {
	if d.normalized {
		panic("bake: geometry appended after pivot normalization")
	}
}

// AppendGroup adds a polygon group and returns its id.
func (d *Description) AppendGroup(name string, s *sprite.Sprite) GroupID {
	d.mutable()
	d.Groups = append(d.Groups, PolygonGroup{Name: name, Sprite: s})
	return GroupID(len(d.Groups) - 1)
}

// AppendVertex adds a vertex position and returns its id.
func (d *Description) AppendVertex(p math.Vec3) VertexID {
	d.mutable()
	d.Positions = append(d.Positions, p)
	return VertexID(len(d.Positions) - 1)
}

// AppendInstance adds an instance of vertex v.
func (d *Description) AppendInstance(v VertexID, normal math.Vec3, uv math.Vec2, color math.Vec4) InstanceID {
	d.mutable()
	d.Instances = append(d.Instances, Instance{Vertex: v, Normal: normal, UV: uv, Color: color})
	return InstanceID(len(d.Instances) - 1)
}

// AppendTriangle adds a triangle to group g.
func (d *Description) AppendTriangle(a, b, c InstanceID, g GroupID) {
	d.mutable()
	d.Triangles = append(d.Triangles, Triangle{Corners: [3]InstanceID{a, b, c}, Group: g})
}

// PolygonCount returns the number of triangles.
func (d *Description) PolygonCount() int {
	return len(d.Triangles)
}

// Bounds returns the bounding box of all vertex positions.
func (d *Description) Bounds() math.Box3 {
	b := math.EmptyBox()
	for _, p := range d.Positions {
		b = b.Extend(p)
	}
	return b
}

// Normalized reports whether the pivot has been applied.
func (d *Description) Normalized() bool {
	return d.normalized
}

// TriangleCorners returns the positions of triangle t's corners.
func (d *Description) TriangleCorners(t Triangle) [3]math.Vec3 {
	var out [3]math.Vec3
	for i, inst := range t.Corners {
		out[i] = d.Positions[d.Instances[inst].Vertex]
	}
	return out
}

// GroupTriangles returns the triangles belonging to group g, in order.
func (d *Description) GroupTriangles(g GroupID) []Triangle {
	var out []Triangle
	for _, t := range d.Triangles {
		if t.Group == g {
			out = append(out, t)
		}
	}
	return out
}
