// Package geomtest provides fixture meshes for tests.
package geomtest

import (
	"github.com/Faultbox/meshc/pkg/geometry"
	"github.com/Faultbox/meshc/pkg/math"
)

// cubeFaces lists each face as a quad of corner indices, counter-clockwise
// seen from outside.
var cubeFaces = [6][4]uint32{
	{0, 1, 3, 2}, // -Z
	{4, 6, 7, 5}, // +Z
	{0, 4, 5, 1}, // -Y
	{2, 3, 7, 6}, // +Y
	{0, 2, 6, 4}, // -X
	{1, 5, 7, 3}, // +X
}

var quadUV = [4]geometry.UV{{U: 0, V: 0}, {U: 1, V: 0}, {U: 1, V: 1}, {U: 0, V: 1}}

// Cube returns the unit cube centered on the origin: 8 vertices at ±0.5,
// 12 triangles, every face mapped over the full (0,0)-(1,1) UV square.
func Cube() *geometry.Static {
	s := &geometry.Static{MeshName: "cube"}
	for i := 0; i < 8; i++ {
		p := math.Vec3{X: -0.5, Y: -0.5, Z: -0.5}
		if i&1 != 0 {
			p.X = 0.5
		}
		if i&2 != 0 {
			p.Y = 0.5
		}
		if i&4 != 0 {
			p.Z = 0.5
		}
		s.Verts = append(s.Verts, geometry.Vertex{Position: p, Normal: p.Normalize()})
	}
	for _, f := range cubeFaces {
		s.Tris = append(s.Tris,
			geometry.Triangle{f[0], f[1], f[2]},
			geometry.Triangle{f[0], f[2], f[3]},
		)
		s.LoopUVs = append(s.LoopUVs,
			[3]geometry.UV{quadUV[0], quadUV[1], quadUV[2]},
			[3]geometry.UV{quadUV[0], quadUV[2], quadUV[3]},
		)
	}
	return s
}

// Quad returns a 2x1 quad lying flat in the XY plane (zero Z extent).
func Quad() *geometry.Static {
	up := math.Vec3{Z: 1}
	return &geometry.Static{
		MeshName: "quad",
		Verts: []geometry.Vertex{
			{Position: math.Vec3{X: -1, Y: -0.5}, Normal: up},
			{Position: math.Vec3{X: 1, Y: -0.5}, Normal: up},
			{Position: math.Vec3{X: 1, Y: 0.5}, Normal: up},
			{Position: math.Vec3{X: -1, Y: 0.5}, Normal: up},
		},
		Tris: []geometry.Triangle{{0, 1, 2}, {0, 2, 3}},
		LoopUVs: [][3]geometry.UV{
			{{U: 0.1, V: 0.1}, {U: 0.2, V: 0.1}, {U: 0.2, V: 0.2}},
			{{U: 0.1, V: 0.1}, {U: 0.2, V: 0.2}, {U: 0.1, V: 0.2}},
		},
	}
}

// MustExtract extracts p with default options and panics on failure.
func MustExtract(p geometry.Provider) *geometry.Mesh {
	m, err := geometry.Extract(p, geometry.Options{})
	if err != nil {
		panic(err)
	}
	return m
}
