package geometry_test

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/meshc/pkg/geometry"
	"github.com/Faultbox/meshc/pkg/geometry/geomtest"
	"github.com/Faultbox/meshc/pkg/math"
)

func TestExtract_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *geometry.Static)
		wantErr error
	}{
		{"no vertices", func(s *geometry.Static) { s.Verts = nil }, geometry.ErrNoVertices},
		{"no triangles", func(s *geometry.Static) { s.Tris = nil }, geometry.ErrNoTriangles},
		{"no uv layer", func(s *geometry.Static) { s.LoopUVs = nil }, geometry.ErrNoUVSource},
		{"bad index", func(s *geometry.Static) { s.Tris[3][1] = 8 }, geometry.ErrIndexOutOfRange},
		{"too many vertices", func(s *geometry.Static) {
			s.Verts = make([]geometry.Vertex, geometry.MaxVertices+1)
		}, geometry.ErrTooManyVertices},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := geomtest.Cube()
			tt.mutate(s)
			_, err := geometry.Extract(s, geometry.Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
			var pe *geometry.PreconditionError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not a *PreconditionError", err)
			}
			if pe.Mesh != "cube" {
				t.Errorf("PreconditionError.Mesh = %q, want cube", pe.Mesh)
			}
		})
	}
}

func TestExtract_LastLoopWins(t *testing.T) {
	s := &geometry.Static{
		MeshName: "seam",
		Verts:    make([]geometry.Vertex, 4),
		Tris:     []geometry.Triangle{{0, 1, 2}, {2, 1, 3}},
		LoopUVs: [][3]geometry.UV{
			{{U: 0.1}, {U: 0.2}, {U: 0.3}},
			{{U: 0.7}, {U: 0.8}, {U: 0.9}},
		},
	}
	m, err := geometry.Extract(s, geometry.Options{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []float64{0.1, 0.8, 0.7, 0.9}
	for i, u := range want {
		if m.UVs[i].U != u {
			t.Errorf("vertex %d: U = %v, want %v", i, m.UVs[i].U, u)
		}
	}
	if m.LoopUVs[0][2].U != 0.3 {
		t.Errorf("loop UVs must keep the per-corner value, got %v", m.LoopUVs[0][2].U)
	}
}

func TestExtract_Bounds(t *testing.T) {
	m, err := geometry.Extract(geomtest.Cube(), geometry.Options{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if m.Bounds.Min != (math.Vec3{X: -0.5, Y: -0.5, Z: -0.5}) {
		t.Errorf("Bounds.Min = %v", m.Bounds.Min)
	}
	if m.Size() != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Size() = %v, want (1,1,1)", m.Size())
	}
}

func TestExtract_ReflectionColor(t *testing.T) {
	override := geometry.Color{R: 0.2, G: 1.5, B: -1}

	tests := []struct {
		name  string
		attrs map[string][]float64
		opts  geometry.Options
		want  geometry.Color
	}{
		{"default red", nil, geometry.Options{}, geometry.Color{R: 1}},
		{"provider attribute", map[string][]float64{"reflection_color": {0, 0.5, 1, 1}}, geometry.Options{}, geometry.Color{G: 0.5, B: 1}},
		{"attribute clamped", map[string][]float64{"reflection_color": {2, -1, 0.25}}, geometry.Options{}, geometry.Color{R: 1, B: 0.25}},
		{"short attribute ignored", map[string][]float64{"reflection_color": {0.5}}, geometry.Options{}, geometry.Color{R: 1}},
		{"override wins", map[string][]float64{"reflection_color": {0, 0, 1}}, geometry.Options{ReflectionColor: &override}, geometry.Color{R: 0.2, G: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := geomtest.Cube()
			s.Attributes = tt.attrs
			m, err := geometry.Extract(s, tt.opts)
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if m.ReflectionColor != tt.want {
				t.Errorf("ReflectionColor = %+v, want %+v", m.ReflectionColor, tt.want)
			}
		})
	}
}

func TestTransform_Apply(t *testing.T) {
	tr := geometry.Transform{
		Rotation:    math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi/2),
		Scale:       math.Vec3{X: 2, Y: 1, Z: 1},
		Translation: math.Vec3{Z: 3},
	}
	got := tr.Apply(math.Vec3{X: 1})
	want := math.Vec3{Y: 2, Z: 3}
	if got.Sub(want).Length() > 1e-9 {
		t.Errorf("Apply = %v, want %v", got, want)
	}

	n := tr.ApplyNormal(math.Vec3{X: 1})
	if gomath.Abs(n.Length()-1) > 1e-9 {
		t.Errorf("ApplyNormal length = %v, want 1", n.Length())
	}
	if n.Sub(math.Vec3{Y: 1}).Length() > 1e-9 {
		t.Errorf("ApplyNormal = %v, want (0,1,0)", n)
	}
}

func TestStatic_IdentityTransform(t *testing.T) {
	s := geomtest.Quad()
	if s.Transform() != geometry.IdentityTransform() {
		t.Errorf("zero Xform should report identity, got %+v", s.Transform())
	}
}
