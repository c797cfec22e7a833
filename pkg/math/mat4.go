package math

// Mat4 is a 4x4 matrix in column-major order, the layout glTF expects for
// inverse bind matrices.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Mul returns m * other.
func (m Mat4) Mul(other Mat4) Mat4 {
	var r Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * other[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// TransformPoint applies the matrix to a point (w = 1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// Columns returns the matrix as four columns.
func (m Mat4) Columns() [4][4]float32 {
	return [4][4]float32{
		{m[0], m[1], m[2], m[3]},
		{m[4], m[5], m[6], m[7]},
		{m[8], m[9], m[10], m[11]},
		{m[12], m[13], m[14], m[15]},
	}
}
