package formats

import (
	"github.com/Faultbox/meshc/pkg/geometry"
	"github.com/Faultbox/meshc/pkg/palette"
	"github.com/Faultbox/meshc/pkg/quantize"
)

// Sections holds the typed arrays and trailer scalars of one mesh.
//
// Coords and Normals carry three components per vertex. Integer profiles fill
// Coords/Normals; ProfileRawFloat fills FloatCoords/FloatNormals instead.
type Sections struct {
	Indices []uint16
	Coords  []int16
	Normals []int16
	UVs     []uint8

	FloatCoords  []float32
	FloatNormals []float32

	ReflectionColor [3]float32
	Rotation        [4]float32 // x, y, z, w
	Scale           [3]float32
	Majority        uint8
}

// VertexCount returns the number of vertices described by the sections.
func (s *Sections) VertexCount() int {
	return len(s.UVs)
}

// NewSections gathers the packer input from the extracted mesh and the
// quantizer and resolver outputs.
//
// Scale is the bounding-box extent multiplied by the object scale: the
// runtime rebuilds positions from the int8 coords with it.
func NewSections(m *geometry.Mesh, q *quantize.Result, r *palette.Result) *Sections {
	s := &Sections{
		Indices:      make([]uint16, 0, len(m.Triangles)*3),
		Coords:       q.Coords,
		Normals:      q.Normals,
		FloatCoords:  q.FloatCoords,
		FloatNormals: q.FloatNormals,
		UVs:          r.Cells,
		Majority:     r.Majority,
	}
	for _, tri := range m.Triangles {
		for _, vi := range tri {
			s.Indices = append(s.Indices, uint16(vi))
		}
	}

	c := m.ReflectionColor
	s.ReflectionColor = [3]float32{float32(c.R), float32(c.G), float32(c.B)}

	rot := m.Transform.Rotation
	s.Rotation = [4]float32{float32(rot.X), float32(rot.Y), float32(rot.Z), float32(rot.W)}

	size := m.Size().Mul(m.Transform.Scale)
	s.Scale = [3]float32{float32(size.X), float32(size.Y), float32(size.Z)}
	return s
}
