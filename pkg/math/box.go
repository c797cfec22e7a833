package math

import "math"

// Box3 is an axis-aligned bounding box. The zero value is not empty; use
// EmptyBox to start accumulating points.
type Box3 struct {
	Min Vec3
	Max Vec3
}

// EmptyBox returns an inverted box that any point will expand.
func EmptyBox() Box3 {
	inf := float32(math.Inf(1))
	return Box3{
		Min: Splat(inf),
		Max: Splat(-inf),
	}
}

// IsValid reports whether at least one point was added.
func (b Box3) IsValid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Extend returns the box grown to contain p.
func (b Box3) Extend(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Center returns the box centroid.
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents.
func (b Box3) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Relative maps a point given in [0,1] box coordinates to world space.
func (b Box3) Relative(r Vec3) Vec3 {
	return b.Min.Add(b.Size().Mul(r))
}

// Translate returns the box shifted by d.
func (b Box3) Translate(d Vec3) Box3 {
	return Box3{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}
