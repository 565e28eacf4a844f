package geometry

import "github.com/Faultbox/meshc/pkg/math"

// Static is an in-memory Provider. A nil LoopUVs means the mesh has no UV layer.
type Static struct {
	MeshName   string
	Verts      []Vertex
	Tris       []Triangle
	LoopUVs    [][3]UV
	Xform      Transform
	Attributes map[string][]float64
}

// Name implements Provider.
func (s *Static) Name() string { return s.MeshName }

// Vertices implements Provider.
func (s *Static) Vertices() []Vertex { return s.Verts }

// Triangles implements Provider.
func (s *Static) Triangles() []Triangle { return s.Tris }

// HasUV implements Provider.
func (s *Static) HasUV() bool { return s.LoopUVs != nil }

// LoopUV implements Provider.
func (s *Static) LoopUV(triangle, corner int) UV {
	if triangle >= len(s.LoopUVs) {
		return UV{}
	}
	return s.LoopUVs[triangle][corner]
}

// BoundingBox implements Provider.
func (s *Static) BoundingBox() math.Box {
	b := math.EmptyBox()
	for _, v := range s.Verts {
		b = b.Extend(v.Position)
	}
	return b
}

// Transform implements Provider. A zero Xform is reported as the identity.
func (s *Static) Transform() Transform {
	if s.Xform == (Transform{}) {
		return IdentityTransform()
	}
	return s.Xform
}

// Attribute implements Provider.
func (s *Static) Attribute(name string) ([]float64, bool) {
	v, ok := s.Attributes[name]
	return v, ok
}
