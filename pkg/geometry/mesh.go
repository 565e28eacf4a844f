package geometry

import "github.com/Faultbox/meshc/pkg/math"

// Mesh is the immutable snapshot of one provider, built by Extract.
type Mesh struct {
	Name      string
	Vertices  []Vertex
	Triangles []Triangle

	// LoopUVs holds one UV per triangle corner, in triangle order.
	LoopUVs [][3]UV

	// UVs holds one UV per vertex: the loop UV of the last triangle corner
	// that referenced the vertex.
	UVs []UV

	Bounds          math.Box
	Transform       Transform
	ReflectionColor Color
}

// Options are caller-supplied values resolved once at extraction.
type Options struct {
	// ReflectionColor overrides the provider attribute when set.
	ReflectionColor *Color
}

// Extract reads p into a Mesh.
func Extract(p Provider, opts Options) (*Mesh, error) {
	name := p.Name()
	fail := func(err error) (*Mesh, error) {
		return nil, &PreconditionError{Mesh: name, Err: err}
	}

	vertices := p.Vertices()
	if len(vertices) == 0 {
		return fail(ErrNoVertices)
	}
	if len(vertices) > MaxVertices {
		return fail(ErrTooManyVertices)
	}
	triangles := p.Triangles()
	if len(triangles) == 0 {
		return fail(ErrNoTriangles)
	}
	if !p.HasUV() {
		return fail(ErrNoUVSource)
	}

	m := &Mesh{
		Name:      name,
		Vertices:  append([]Vertex(nil), vertices...),
		Triangles: append([]Triangle(nil), triangles...),
		LoopUVs:   make([][3]UV, len(triangles)),
		UVs:       make([]UV, len(vertices)),
		Transform: p.Transform(),
	}

	for ti, tri := range m.Triangles {
		for corner, vi := range tri {
			if int(vi) >= len(vertices) {
				return fail(ErrIndexOutOfRange)
			}
			uv := p.LoopUV(ti, corner)
			m.LoopUVs[ti][corner] = uv
			m.UVs[vi] = uv
		}
	}

	bounds := p.BoundingBox()
	for _, v := range m.Vertices {
		bounds = bounds.Extend(v.Position)
	}
	m.Bounds = bounds

	m.ReflectionColor = resolveReflectionColor(p, opts)
	return m, nil
}

func resolveReflectionColor(p Provider, opts Options) Color {
	if opts.ReflectionColor != nil {
		return opts.ReflectionColor.Clamp()
	}
	if v, ok := p.Attribute(AttrReflectionColor); ok && len(v) >= 3 {
		return Color{R: v[0], G: v[1], B: v[2]}.Clamp()
	}
	return DefaultReflectionColor
}

// Size returns the bounding box extent.
func (m *Mesh) Size() math.Vec3 {
	return m.Bounds.Size()
}
