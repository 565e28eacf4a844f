package quantize

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Faultbox/meshc/pkg/geometry"
	"github.com/Faultbox/meshc/pkg/geometry/geomtest"
	vmath "github.com/Faultbox/meshc/pkg/math"
)

func TestRound_TiesAwayFromZero(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.5, 1},
		{-0.5, -1},
		{1.5, 2},
		{2.5, 3},
		{-2.5, -3},
		{126.49, 126},
		{-0.49, 0},
	}

	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSaturate(t *testing.T) {
	tests := []struct {
		in      float64
		want8   int8
		want16  int16
		clamp8  bool
		clamp16 bool
	}{
		{0, 0, 0, false, false},
		{127, 127, 127, false, false},
		{128, 127, 128, true, false},
		{-129, -128, -129, true, false},
		{40000, 127, 32767, true, true},
		{-40000, -128, -32768, true, true},
		{math.NaN(), 0, 0, true, true},
	}

	for _, tt := range tests {
		got8, c8 := Saturate8(tt.in)
		if got8 != tt.want8 || c8 != tt.clamp8 {
			t.Errorf("Saturate8(%v) = %d,%v want %d,%v", tt.in, got8, c8, tt.want8, tt.clamp8)
		}
		got16, c16 := Saturate16(tt.in)
		if got16 != tt.want16 || c16 != tt.clamp16 {
			t.Errorf("Saturate16(%v) = %d,%v want %d,%v", tt.in, got16, c16, tt.want16, tt.clamp16)
		}
	}
}

func TestQuantize_CubeBoxRelative(t *testing.T) {
	m := geomtest.MustExtract(geomtest.Cube())
	r, err := Quantize(m, BoxRelative8)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}

	if len(r.Coords) != 24 {
		t.Fatalf("expected 24 coords, got %d", len(r.Coords))
	}
	for i, q := range r.Coords {
		if q != -128 && q != 127 {
			t.Errorf("coord %d = %d, want -128 or 127", i, q)
		}
	}
	// Corner normals are (±1,±1,±1)/sqrt(3); 127/sqrt(3) = 73.32.
	for i, q := range r.Normals {
		if q != 73 && q != -73 {
			t.Errorf("normal %d = %d, want ±73", i, q)
		}
	}
	if r.Saturated != 0 {
		t.Errorf("expected no saturation, got %d", r.Saturated)
	}
}

func TestQuantize_DegenerateAxis(t *testing.T) {
	m := geomtest.MustExtract(geomtest.Quad())
	r, err := Quantize(m, BoxRelative8)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}
	for v := 0; v < len(m.Vertices); v++ {
		if z := r.Coords[v*3+2]; z != 0 {
			t.Errorf("vertex %d: flat axis quantized to %d, want 0", v, z)
		}
	}
	if r.Coords[0] != -128 || r.Coords[3] != 127 {
		t.Errorf("X extremes = %d,%d want -128,127", r.Coords[0], r.Coords[3])
	}
}

func TestQuantize_BoxRelativeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		s := &geometry.Static{MeshName: "random", Tris: []geometry.Triangle{{0, 1, 2}}, LoopUVs: [][3]geometry.UV{{}}}
		for i := 0; i < 64; i++ {
			p := vmath.Vec3{
				X: rng.Float64()*20 - 10,
				Y: rng.Float64()*0.01 - 3,
				Z: rng.Float64() * 1000,
			}
			s.Verts = append(s.Verts, geometry.Vertex{Position: p, Normal: vmath.Vec3{Z: 1}})
		}
		m := geomtest.MustExtract(s)
		r, err := Quantize(m, BoxRelative8)
		if err != nil {
			t.Fatalf("Quantize failed: %v", err)
		}

		size := m.Size()
		for i, v := range m.Vertices {
			for axis := 0; axis < 3; axis++ {
				got := Dequantize8(int8(r.Coords[i*3+axis]), m.Bounds.Min.Axis(axis), size.Axis(axis))
				tol := size.Axis(axis)/510 + 1e-9
				if diff := math.Abs(got - v.Position.Axis(axis)); diff > tol {
					t.Fatalf("trial %d vertex %d axis %d: error %g exceeds %g", trial, i, axis, diff, tol)
				}
			}
		}
	}
}

func TestQuantize_World16(t *testing.T) {
	s := geomtest.Cube()
	s.Xform = geometry.Transform{
		Rotation: vmath.QuatIdentity(),
		Scale:    vmath.Vec3{X: 0.5, Y: 0.5, Z: 0.5},
	}
	m := geomtest.MustExtract(s)
	r, err := Quantize(m, World16)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}

	// 0.5 * 0.5 * 32767 = 8191.75
	for i, q := range r.Coords {
		if q != 8192 && q != -8192 {
			t.Errorf("coord %d = %d, want ±8192", i, q)
		}
	}
	// 32767/sqrt(3) = 18918.1
	for i, q := range r.Normals {
		if q != 18918 && q != -18918 {
			t.Errorf("normal %d = %d, want ±18918", i, q)
		}
	}
}

func TestQuantize_World16Saturates(t *testing.T) {
	s := geomtest.Cube()
	s.Xform = geometry.Transform{
		Rotation: vmath.QuatIdentity(),
		Scale:    vmath.Vec3{X: 4, Y: 1, Z: 1},
	}
	m := geomtest.MustExtract(s)
	r, err := Quantize(m, World16)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}

	// X spans ±2.0 in world space: every X component saturates instead of wrapping.
	for v := 0; v < 8; v++ {
		x := r.Coords[v*3]
		if x != math.MaxInt16 && x != math.MinInt16 {
			t.Errorf("vertex %d: X = %d, want saturated", v, x)
		}
		if m.Vertices[v].Position.X > 0 && x < 0 {
			t.Errorf("vertex %d: positive X wrapped to %d", v, x)
		}
	}
	if r.Saturated != 8 {
		t.Errorf("Saturated = %d, want 8", r.Saturated)
	}
}

func TestQuantize_Float32(t *testing.T) {
	m := geomtest.MustExtract(geomtest.Quad())
	r, err := Quantize(m, Float32)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}
	if r.Coords != nil {
		t.Error("float encoding should not fill integer coords")
	}
	if r.FloatCoords[3] != 1 || r.FloatCoords[4] != -0.5 {
		t.Errorf("vertex 1 = %v", r.FloatCoords[3:6])
	}
	if r.FloatNormals[2] != 1 {
		t.Errorf("normal Z = %v, want 1", r.FloatNormals[2])
	}
}

func TestQuantize_UnknownEncoding(t *testing.T) {
	m := geomtest.MustExtract(geomtest.Quad())
	if _, err := Quantize(m, Encoding(42)); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestEncoding_String(t *testing.T) {
	tests := []struct {
		enc  Encoding
		want string
	}{
		{BoxRelative8, "box-relative-8"},
		{World16, "world-16"},
		{Float32, "float32"},
		{Encoding(9), "Unknown(9)"},
	}

	for _, tt := range tests {
		if got := tt.enc.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
