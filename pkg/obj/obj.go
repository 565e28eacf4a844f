// Package obj reads Wavefront OBJ files as geometry providers.
package obj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Faultbox/meshc/pkg/encoding"
	"github.com/Faultbox/meshc/pkg/geometry"
	"github.com/Faultbox/meshc/pkg/math"
)

// ErrMalformed is returned for lines that cannot be parsed.
var ErrMalformed = errors.New("malformed OBJ")

// Options control how names are read.
type Options struct {
	// NameCharset is the charset of object names ("" means UTF-8).
	NameCharset string
	// DefaultName names geometry that appears before any "o" statement.
	DefaultName string
}

// corner is one face vertex: indices into the file-wide arrays, -1 if absent.
type corner struct {
	pos, tex, nrm int
}

type rawObject struct {
	name  string
	faces [][3]corner
}

// Object is one "o" block of an OBJ file. It implements geometry.Provider.
type Object struct {
	name    string
	verts   []geometry.Vertex
	tris    []geometry.Triangle
	loopUVs [][3]geometry.UV
	hasUV   bool
	bounds  math.Box
}

var _ geometry.Provider = (*Object)(nil)

// Open reads the OBJ file at path. The default object name is the file name
// without extension.
func Open(path string, opts Options) ([]*Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if opts.DefaultName == "" {
		opts.DefaultName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Parse(f, opts)
}

// Parse reads OBJ data. Polygons are fan-triangulated; objects without faces
// are dropped.
func Parse(r io.Reader, opts Options) ([]*Object, error) {
	var (
		positions []math.Vec3
		texcoords []geometry.UV
		normals   []math.Vec3
		objects   []*rawObject
	)

	defaultName := opts.DefaultName
	if defaultName == "" {
		defaultName = "mesh"
	}
	current := &rawObject{name: defaultName}
	objects = append(objects, current)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		ident, args := fields[0], fields[1:]

		bad := func(err error) error {
			return fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
		}

		switch ident {
		case "v", "vn":
			v, err := parseFloats(args, 3)
			if err != nil {
				return nil, bad(err)
			}
			p := math.Vec3{X: v[0], Y: v[1], Z: v[2]}
			if ident == "v" {
				positions = append(positions, p)
			} else {
				normals = append(normals, p)
			}

		case "vt":
			v, err := parseFloats(args, 2)
			if err != nil {
				return nil, bad(err)
			}
			texcoords = append(texcoords, geometry.UV{U: v[0], V: v[1]})

		case "f":
			if len(args) < 3 {
				return nil, bad(fmt.Errorf("face with %d vertices", len(args)))
			}
			poly := make([]corner, len(args))
			for i, a := range args {
				c, err := parseCorner(a, len(positions), len(texcoords), len(normals))
				if err != nil {
					return nil, bad(err)
				}
				poly[i] = c
			}
			for i := 1; i+1 < len(poly); i++ {
				current.faces = append(current.faces, [3]corner{poly[0], poly[i], poly[i+1]})
			}

		case "o":
			name, err := encoding.DecodeName([]byte(strings.TrimSpace(line[1:])), opts.NameCharset)
			if err != nil {
				return nil, bad(err)
			}
			if name == "" {
				name = defaultName
			}
			current = &rawObject{name: name}
			objects = append(objects, current)

		default:
			// g, s, usemtl, mtllib and friends carry nothing the exporter uses.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	var out []*Object
	for _, raw := range objects {
		if len(raw.faces) == 0 {
			continue
		}
		out = append(out, build(raw, positions, texcoords, normals))
	}
	return out, nil
}

// build turns a face list into a provider. Vertices are the positions the
// object references, in file order. Vertex normals average the corner
// normals (or face normals where a corner has none).
func build(raw *rawObject, positions []math.Vec3, texcoords []geometry.UV, normals []math.Vec3) *Object {
	used := make(map[int]uint32)
	var order []int
	for _, f := range raw.faces {
		for _, c := range f {
			if _, ok := used[c.pos]; !ok {
				used[c.pos] = 0
				order = append(order, c.pos)
			}
		}
	}
	sort.Ints(order)
	for i, p := range order {
		used[p] = uint32(i)
	}

	o := &Object{
		name:    raw.name,
		verts:   make([]geometry.Vertex, len(order)),
		tris:    make([]geometry.Triangle, len(raw.faces)),
		loopUVs: make([][3]geometry.UV, len(raw.faces)),
		bounds:  math.EmptyBox(),
	}
	for i, p := range order {
		o.verts[i].Position = positions[p]
		o.bounds = o.bounds.Extend(positions[p])
	}

	sums := make([]math.Vec3, len(order))
	for fi, f := range raw.faces {
		a, b, c := positions[f[0].pos], positions[f[1].pos], positions[f[2].pos]
		faceNormal := b.Sub(a).Cross(c.Sub(a))

		for k, cn := range f {
			vi := used[cn.pos]
			o.tris[fi][k] = vi
			if cn.tex >= 0 {
				o.loopUVs[fi][k] = texcoords[cn.tex]
				o.hasUV = true
			}
			if cn.nrm >= 0 {
				sums[vi] = sums[vi].Add(normals[cn.nrm].Normalize())
			} else {
				sums[vi] = sums[vi].Add(faceNormal)
			}
		}
	}
	for i := range o.verts {
		o.verts[i].Normal = sums[i].Normalize()
	}
	return o
}

func parseFloats(args []string, n int) ([]float64, error) {
	if len(args) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// parseCorner parses "p", "p/t", "p//n" or "p/t/n". Indices are 1-based;
// negative indices count back from the latest element.
func parseCorner(s string, np, nt, nn int) (corner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return corner{}, fmt.Errorf("bad face vertex %q", s)
	}
	c := corner{pos: -1, tex: -1, nrm: -1}
	targets := []*int{&c.pos, &c.tex, &c.nrm}
	counts := []int{np, nt, nn}
	for i, part := range parts {
		if part == "" {
			continue
		}
		idx, err := resolveIndex(part, counts[i])
		if err != nil {
			return corner{}, fmt.Errorf("face vertex %q: %w", s, err)
		}
		*targets[i] = idx
	}
	if c.pos < 0 {
		return corner{}, fmt.Errorf("face vertex %q has no position", s)
	}
	return c, nil
}

func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	}
	return 0, fmt.Errorf("index %d out of range (%d defined)", n, count)
}

// Name implements geometry.Provider.
func (o *Object) Name() string { return o.name }

// Vertices implements geometry.Provider.
func (o *Object) Vertices() []geometry.Vertex { return o.verts }

// Triangles implements geometry.Provider.
func (o *Object) Triangles() []geometry.Triangle { return o.tris }

// HasUV implements geometry.Provider.
func (o *Object) HasUV() bool { return o.hasUV }

// LoopUV implements geometry.Provider.
func (o *Object) LoopUV(triangle, k int) geometry.UV { return o.loopUVs[triangle][k] }

// BoundingBox implements geometry.Provider.
func (o *Object) BoundingBox() math.Box { return o.bounds }

// Transform implements geometry.Provider. OBJ geometry is stored in object space.
func (o *Object) Transform() geometry.Transform { return geometry.IdentityTransform() }

// Attribute implements geometry.Provider. OBJ carries no custom attributes.
func (o *Object) Attribute(string) ([]float64, bool) { return nil, false }
