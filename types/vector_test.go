package types

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestVec3Ops(t *testing.T) {
	v1 := XYZ(1, 2, 3)
	v2 := XYZ(4, 5, 6)

	if got := v1.Add(v2); got != XYZ(5, 7, 9) {
		t.Fatalf("expected (5,7,9); got %v", got)
	}
	if got := v2.Sub(v1); got != XYZ(3, 3, 3) {
		t.Fatalf("expected (3,3,3); got %v", got)
	}
	if got := v1.Mul(2); got != XYZ(2, 4, 6) {
		t.Fatalf("expected (2,4,6); got %v", got)
	}
	if got := v1.Dot(v2); got != 32 {
		t.Fatalf("expected dot product 32; got %g", got)
	}
	if got := XYZ(1, 0, 0).Cross(XYZ(0, 1, 0)); got != XYZ(0, 0, 1) {
		t.Fatalf("expected (0,0,1); got %v", got)
	}
	if got := XYZ(3, 4, 0).Len(); math32.Abs(got-5) > 1e-5 {
		t.Fatalf("expected length 5; got %g", got)
	}
	if got := XYZ(-3, 2, -1).MaxAbsComponent(); got != 3 {
		t.Fatalf("expected max abs component 3; got %g", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := XYZ(0, 0, 10).Normalize()
	if n != XYZ(0, 0, 1) {
		t.Fatalf("expected (0,0,1); got %v", n)
	}

	// Near-zero vectors normalize to zero instead of blowing up.
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Fatalf("expected zero vector; got %v", got)
	}
}

func TestVec3MinMax(t *testing.T) {
	v1 := XYZ(1, 5, 3)
	v2 := XYZ(4, 2, 3)

	if got := MinVec3(v1, v2); got != XYZ(1, 2, 3) {
		t.Fatalf("expected (1,2,3); got %v", got)
	}
	if got := MaxVec3(v1, v2); got != XYZ(4, 5, 3) {
		t.Fatalf("expected (4,5,3); got %v", got)
	}
}

func TestVec2Ops(t *testing.T) {
	v1 := XY(1, 2)
	v2 := XY(3, 4)

	if got := v1.Add(v2); got != XY(4, 6) {
		t.Fatalf("expected (4,6); got %v", got)
	}
	if got := v2.Sub(v1); got != XY(2, 2) {
		t.Fatalf("expected (2,2); got %v", got)
	}
	if got := v1.Mul(3); got != XY(3, 6) {
		t.Fatalf("expected (3,6); got %v", got)
	}
	if got := XY(3, 4).Len(); math32.Abs(got-5) > 1e-5 {
		t.Fatalf("expected length 5; got %g", got)
	}
}
