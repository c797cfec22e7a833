package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec2DivClamp(t *testing.T) {
	got := Vec2{96, -8}.Div(Vec2{64, 64}).Clamp(0, 1)
	want := Vec2{1, 0}
	if got != want {
		t.Errorf("Div().Clamp() = %v, want %v", got, want)
	}

	if got := (Vec2{3, 3}).Div(Vec2{}); got != (Vec2{}) {
		t.Errorf("Div by zero = %v, want zero", got)
	}
}

func TestBoxExtend(t *testing.T) {
	b := EmptyBox()
	if b.IsValid() {
		t.Fatal("empty box should not be valid")
	}

	b = b.Extend(Vec3{-1, 2, 0}).Extend(Vec3{3, -2, 4})
	if !b.IsValid() {
		t.Fatal("box with points should be valid")
	}
	if b.Min != (Vec3{-1, -2, 0}) || b.Max != (Vec3{3, 2, 4}) {
		t.Errorf("bounds = %v..%v", b.Min, b.Max)
	}
	if c := b.Center(); c != (Vec3{1, 0, 2}) {
		t.Errorf("Center() = %v, want (1,0,2)", c)
	}
	if r := b.Relative(Vec3{0.5, 0.5, 0}); r != (Vec3{1, 0, 0}) {
		t.Errorf("Relative() = %v, want (1,0,0)", r)
	}
}

func TestTranslateTransformPoint(t *testing.T) {
	m := Translate(Vec3{10, 20, 30})
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint() = %v, want %v", got, want)
	}
}

func TestMulInverseTranslation(t *testing.T) {
	p := Vec3{4, -5, 6}
	m := Translate(p).Mul(Translate(p.Scale(-1)))
	if m != Identity() {
		t.Errorf("T(p) * T(-p) = %v, want identity", m)
	}
}

func TestColumns(t *testing.T) {
	cols := Translate(Vec3{1, 2, 3}).Columns()
	if cols[3] != [4]float32{1, 2, 3, 1} {
		t.Errorf("translation column = %v", cols[3])
	}
}

func TestVec4LerpScale(t *testing.T) {
	white := Vec4{1, 1, 1, 1}
	red := Vec4{1, 0, 0, 1}
	if got := white.Lerp(red, 0.5); got != (Vec4{1, 0.5, 0.5, 1}) {
		t.Errorf("Lerp() = %v", got)
	}
	if got := white.Scale(2); got != (Vec4{2, 2, 2, 2}) {
		t.Errorf("Scale() = %v", got)
	}
}
