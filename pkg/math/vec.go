// Package math provides the small vector and bounds types used by the mesh
// bake pipeline and the runtime actor.
package math

import "math"

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Div returns the component-wise quotient. Zero divisors yield zero.
func (v Vec2) Div(other Vec2) Vec2 {
	var out Vec2
	if other.X != 0 {
		out.X = v.X / other.X
	}
	if other.Y != 0 {
		out.Y = v.Y / other.Y
	}
	return out
}

// Clamp clamps both components into [lo, hi].
func (v Vec2) Clamp(lo, hi float32) Vec2 {
	return Vec2{Clamp(v.X, lo, hi), Clamp(v.Y, lo, hi)}
}

// Vec3 is a 3D vector. Meshes use X right, Y depth and Z up.
type Vec3 struct {
	X, Y, Z float32
}

// Splat returns a vector with all components set to s.
func Splat(s float32) Vec3 {
	return Vec3{s, s, s}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mul returns the component-wise product.
func (v Vec3) Mul(other Vec3) Vec3 {
	return Vec3{v.X * other.X, v.Y * other.Y, v.Z * other.Z}
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Min returns the component-wise minimum.
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{min(v.X, other.X), min(v.Y, other.Y), min(v.Z, other.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{max(v.X, other.X), max(v.Y, other.Y), max(v.Z, other.Z)}
}

// Lerp interpolates between v and other by t.
func (v Vec3) Lerp(other Vec3, t float32) Vec3 {
	return v.Add(other.Sub(v).Scale(t))
}

// Array returns the components as an array.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// Vec4 is a 4D vector. Baked sprite render data packs (x, y, u, v) into it.
type Vec4 struct {
	X, Y, Z, W float32
}

// Lerp interpolates between v and other by t.
func (v Vec4) Lerp(other Vec4, t float32) Vec4 {
	return Vec4{
		v.X + (other.X-v.X)*t,
		v.Y + (other.Y-v.Y)*t,
		v.Z + (other.Z-v.Z)*t,
		v.W + (other.W-v.W)*t,
	}
}

// Scale multiplies every component by s.
func (v Vec4) Scale(s float32) Vec4 {
	return Vec4{v.X * s, v.Y * s, v.Z * s, v.W * s}
}

// Array returns the components as an array.
func (v Vec4) Array() [4]float32 {
	return [4]float32{v.X, v.Y, v.Z, v.W}
}

// Clamp returns x limited to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp interpolates between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
