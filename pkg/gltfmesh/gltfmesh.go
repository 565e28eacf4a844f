// Package gltfmesh reads glTF 2.0 scenes (.gltf and .glb) as geometry
// providers, one per mesh node.
package gltfmesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshc/pkg/geometry"
	"github.com/Faultbox/meshc/pkg/math"
)

var (
	// ErrNoPositions is returned for primitives without a POSITION attribute.
	ErrNoPositions = errors.New("primitive has no POSITION attribute")
	// ErrUnsupportedMode is returned for non-triangle primitives.
	ErrUnsupportedMode = errors.New("unsupported primitive mode")
	// ErrAccessorRange is returned when a primitive names a missing accessor.
	ErrAccessorRange = errors.New("accessor index out of range")
)

// Node is one mesh node of a glTF scene, with its primitives merged into a
// single vertex and triangle list. It implements geometry.Provider.
type Node struct {
	name      string
	verts     []geometry.Vertex
	tris      []geometry.Triangle
	uvs       []geometry.UV
	hasUV     bool
	bounds    math.Box
	transform geometry.Transform
	attrs     map[string][]float64
}

var _ geometry.Provider = (*Node)(nil)

// Open loads a .gltf or .glb file.
func Open(path string) ([]*Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glTF: %w", err)
	}
	return Read(doc)
}

// Read returns a provider for every node that references a mesh, in node
// order. World transforms are composed through the node hierarchy.
func Read(doc *gltf.Document) ([]*Node, error) {
	world := worldMatrices(doc)

	var out []*Node
	for i, n := range doc.Nodes {
		if n.Mesh == nil {
			continue
		}
		if int(*n.Mesh) >= len(doc.Meshes) {
			return nil, fmt.Errorf("node %d: mesh %d out of range", i, *n.Mesh)
		}
		mesh := doc.Meshes[*n.Mesh]

		node, err := readMesh(doc, mesh)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, nodeName(n, mesh, i), err)
		}
		node.name = nodeName(n, mesh, i)
		node.transform = decompose(world[i])
		node.attrs = make(map[string][]float64)
		for _, extras := range []any{mesh.Extras, n.Extras} {
			for k, v := range floatExtras(extras) {
				node.attrs[k] = v
			}
		}
		out = append(out, node)
	}
	return out, nil
}

func nodeName(n *gltf.Node, m *gltf.Mesh, i int) string {
	switch {
	case n.Name != "":
		return n.Name
	case m.Name != "":
		return m.Name
	}
	return fmt.Sprintf("mesh%d", i)
}

func readMesh(doc *gltf.Document, mesh *gltf.Mesh) (*Node, error) {
	node := &Node{bounds: math.EmptyBox()}
	var normalsFromFaces bool

	for pi, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			return nil, fmt.Errorf("primitive %d: %w: %v", pi, ErrUnsupportedMode, prim.Mode)
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			return nil, fmt.Errorf("primitive %d: %w", pi, ErrNoPositions)
		}
		posAcr, err := accessor(doc, posIdx)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: POSITION: %w", pi, err)
		}
		positions, err := modeler.ReadPosition(doc, posAcr, nil)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: reading positions: %w", pi, err)
		}
		if len(posAcr.Min) == 3 && len(posAcr.Max) == 3 {
			node.bounds = node.bounds.
				Extend(vec3([3]float32(posAcr.Min))).
				Extend(vec3([3]float32(posAcr.Max)))
		}

		var normals [][3]float32
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			acr, err := accessor(doc, idx)
			if err != nil {
				return nil, fmt.Errorf("primitive %d: NORMAL: %w", pi, err)
			}
			if normals, err = modeler.ReadNormal(doc, acr, nil); err != nil {
				return nil, fmt.Errorf("primitive %d: reading normals: %w", pi, err)
			}
		}
		if len(normals) != len(positions) {
			normals = nil
			normalsFromFaces = true
		}

		var uvs [][2]float32
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			acr, err := accessor(doc, idx)
			if err != nil {
				return nil, fmt.Errorf("primitive %d: TEXCOORD_0: %w", pi, err)
			}
			if uvs, err = modeler.ReadTextureCoord(doc, acr, nil); err != nil {
				return nil, fmt.Errorf("primitive %d: reading texcoords: %w", pi, err)
			}
			node.hasUV = true
		}

		var indices []uint32
		if prim.Indices != nil {
			acr, err := accessor(doc, *prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("primitive %d: indices: %w", pi, err)
			}
			if indices, err = modeler.ReadIndices(doc, acr, nil); err != nil {
				return nil, fmt.Errorf("primitive %d: reading indices: %w", pi, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		base := uint32(len(node.verts))
		for i, p := range positions {
			v := geometry.Vertex{Position: vec3(p)}
			if normals != nil {
				v.Normal = vec3(normals[i]).Normalize()
			}
			node.verts = append(node.verts, v)

			// glTF puts the texture origin top-left; the palette grid counts V up.
			var uv geometry.UV
			if i < len(uvs) {
				uv = geometry.UV{U: float64(uvs[i][0]), V: 1 - float64(uvs[i][1])}
			}
			node.uvs = append(node.uvs, uv)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			tri := geometry.Triangle{indices[i] + base, indices[i+1] + base, indices[i+2] + base}
			for _, vi := range tri {
				if int(vi) >= len(node.verts) {
					return nil, fmt.Errorf("primitive %d: %w: %d", pi, geometry.ErrIndexOutOfRange, vi-base)
				}
			}
			node.tris = append(node.tris, tri)
		}
	}

	if normalsFromFaces {
		node.faceNormals()
	}
	return node, nil
}

// faceNormals fills zero vertex normals with the area-weighted average of
// the adjacent face normals.
func (n *Node) faceNormals() {
	sums := make([]math.Vec3, len(n.verts))
	for _, t := range n.tris {
		a, b, c := n.verts[t[0]].Position, n.verts[t[1]].Position, n.verts[t[2]].Position
		fn := b.Sub(a).Cross(c.Sub(a))
		for _, vi := range t {
			sums[vi] = sums[vi].Add(fn)
		}
	}
	for i := range n.verts {
		if n.verts[i].Normal == (math.Vec3{}) {
			n.verts[i].Normal = sums[i].Normalize()
		}
	}
}

// worldMatrices returns the world matrix of every node. Nodes outside any
// parent chain are roots.
func worldMatrices(doc *gltf.Document) []mgl64.Mat4 {
	world := make([]mgl64.Mat4, len(doc.Nodes))
	parent := make([]int, len(doc.Nodes))
	for i := range parent {
		parent[i] = -1
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(parent) {
				parent[c] = i
			}
		}
	}

	done := make([]bool, len(doc.Nodes))
	var visit func(i, depth int) mgl64.Mat4
	visit = func(i, depth int) mgl64.Mat4 {
		if done[i] {
			return world[i]
		}
		m := localMatrix(doc.Nodes[i])
		// A cycle is invalid glTF; the depth bound stops it from recursing forever.
		if p := parent[i]; p >= 0 && depth < len(doc.Nodes) {
			m = visit(p, depth+1).Mul4(m)
		}
		world[i], done[i] = m, true
		return m
	}
	for i := range doc.Nodes {
		visit(i, 0)
	}
	return world
}

// localMatrix returns the node's own transform. glTF stores it as float32.
func localMatrix(n *gltf.Node) mgl64.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var out mgl64.Mat4
		for i, v := range m {
			out[i] = float64(v)
		}
		return out
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl64.Quat{
		W: float64(r[3]),
		V: mgl64.Vec3{float64(r[0]), float64(r[1]), float64(r[2])},
	}.Normalize()
	return mgl64.Translate3D(float64(t[0]), float64(t[1]), float64(t[2])).
		Mul4(q.Mat4()).
		Mul4(mgl64.Scale3D(float64(s[0]), float64(s[1]), float64(s[2])))
}

func accessor(doc *gltf.Document, idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("%w: %d", ErrAccessorRange, idx)
	}
	return doc.Accessors[idx], nil
}

// decompose splits an affine matrix into translation, rotation and scale.
// Shear is dropped. A negative determinant is folded into the X scale.
func decompose(m mgl64.Mat4) geometry.Transform {
	cols := [3]mgl64.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	scale := mgl64.Vec3{cols[0].Len(), cols[1].Len(), cols[2].Len()}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}

	rot := mgl64.Ident4()
	for c := 0; c < 3; c++ {
		if scale[c] == 0 {
			continue
		}
		col := cols[c].Mul(1 / scale[c])
		rot.SetCol(c, col.Vec4(0))
	}
	q := mgl64.Mat4ToQuat(rot).Normalize()
	t := m.Col(3)

	return geometry.Transform{
		Rotation:    math.Quat{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W},
		Scale:       math.Vec3{X: scale[0], Y: scale[1], Z: scale[2]},
		Translation: math.Vec3{X: t[0], Y: t[1], Z: t[2]},
	}
}

// floatExtras picks the numeric array entries out of a glTF extras object.
func floatExtras(extras any) map[string][]float64 {
	obj, ok := extras.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]float64)
	for k, v := range obj {
		switch arr := v.(type) {
		case []float64:
			out[k] = arr
		case []any:
			vals := make([]float64, 0, len(arr))
			for _, e := range arr {
				f, ok := e.(float64)
				if !ok {
					vals = nil
					break
				}
				vals = append(vals, f)
			}
			if vals != nil {
				out[k] = vals
			}
		}
	}
	return out
}

func vec3(v [3]float32) math.Vec3 {
	return math.Vec3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// Name implements geometry.Provider.
func (n *Node) Name() string { return n.name }

// Vertices implements geometry.Provider.
func (n *Node) Vertices() []geometry.Vertex { return n.verts }

// Triangles implements geometry.Provider.
func (n *Node) Triangles() []geometry.Triangle { return n.tris }

// HasUV implements geometry.Provider.
func (n *Node) HasUV() bool { return n.hasUV }

// LoopUV implements geometry.Provider. glTF UVs are per vertex, so every
// loop of a vertex reports the same value.
func (n *Node) LoopUV(triangle, k int) geometry.UV {
	return n.uvs[n.tris[triangle][k]]
}

// BoundingBox implements geometry.Provider. It comes from the accessor
// min/max and may be empty when the file omits them.
func (n *Node) BoundingBox() math.Box { return n.bounds }

// Transform implements geometry.Provider.
func (n *Node) Transform() geometry.Transform { return n.transform }

// Attribute implements geometry.Provider. Numeric array extras on the node
// or its mesh are exposed as attributes; node extras win.
func (n *Node) Attribute(name string) ([]float64, bool) {
	v, ok := n.attrs[name]
	return v, ok
}
