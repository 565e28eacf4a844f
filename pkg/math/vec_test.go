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

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 4, 0}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, -2, 3}
	b := Vec3{-1, 2, 0}
	if got, want := a.Min(b), (Vec3{-1, -2, 0}); got != want {
		t.Errorf("Min() = %v, want %v", got, want)
	}
	if got, want := a.Max(b), (Vec3{1, 2, 3}); got != want {
		t.Errorf("Max() = %v, want %v", got, want)
	}
}

func TestVec3Axis(t *testing.T) {
	v := Vec3{7, 8, 9}
	for i, want := range []float64{7, 8, 9} {
		if got := v.Axis(i); got != want {
			t.Errorf("Axis(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestBoxOf(t *testing.T) {
	b := BoxOf([]Vec3{{-0.5, 0, 2}, {0.5, 1, -2}, {0, 0.25, 0}})
	if b.Min != (Vec3{-0.5, 0, -2}) {
		t.Errorf("Min = %v", b.Min)
	}
	if b.Max != (Vec3{0.5, 1, 2}) {
		t.Errorf("Max = %v", b.Max)
	}
	if got, want := b.Size(), (Vec3{1, 1, 4}); got != want {
		t.Errorf("Size() = %v, want %v", got, want)
	}
}

func TestEmptyBox(t *testing.T) {
	b := EmptyBox()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox should be empty")
	}
	b = b.Extend(Vec3{1, 2, 3})
	if b.IsEmpty() {
		t.Fatal("box with one point should not be empty")
	}
	if b.Size() != (Vec3{}) {
		t.Errorf("single point box size = %v, want zero", b.Size())
	}
}
