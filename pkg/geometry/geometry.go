// Package geometry defines the Geometry Provider contract and the canonical mesh record
// the exporter builds from it.
package geometry

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshc/pkg/math"
)

// Precondition failures. They are always returned wrapped in a *PreconditionError.
var (
	ErrNoVertices      = errors.New("mesh has no vertices")
	ErrNoTriangles     = errors.New("mesh has no triangles")
	ErrNoUVSource      = errors.New("mesh has no active UV layer")
	ErrIndexOutOfRange = errors.New("triangle references a missing vertex")
	ErrTooManyVertices = errors.New("mesh has more vertices than 16-bit indices can address")
)

// MaxVertices is the largest vertex count addressable by the u16 index section.
const MaxVertices = 1 << 16

// AttrReflectionColor is the provider attribute holding the reflection color.
const AttrReflectionColor = "reflection_color"

// PreconditionError reports input that makes a mesh impossible to export.
type PreconditionError struct {
	Mesh string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("mesh %q: %v", e.Mesh, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Vertex is a position and its normal.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
}

// Triangle holds three vertex indices.
type Triangle [3]uint32

// UV is a texture coordinate.
type UV struct {
	U, V float64
}

// Transform is the object's local transform.
type Transform struct {
	Rotation    math.Quat
	Scale       math.Vec3
	Translation math.Vec3
}

// IdentityTransform returns a transform that leaves positions unchanged.
func IdentityTransform() Transform {
	return Transform{
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
	}
}

// Apply maps a local position into world space: R·(S∘p) + T.
func (t Transform) Apply(p math.Vec3) math.Vec3 {
	return t.Rotation.Rotate(p.Mul(t.Scale)).Add(t.Translation)
}

// ApplyNormal maps a local normal into world space using the inverse scale,
// then renormalizes.
func (t Transform) ApplyNormal(n math.Vec3) math.Vec3 {
	inv := math.Vec3{X: invOrZero(t.Scale.X), Y: invOrZero(t.Scale.Y), Z: invOrZero(t.Scale.Z)}
	return t.Rotation.Rotate(n.Mul(inv)).Normalize()
}

func invOrZero(s float64) float64 {
	if s == 0 {
		return 0
	}
	return 1 / s
}

// Color is a linear RGB triple.
type Color struct {
	R, G, B float64
}

// DefaultReflectionColor is used when neither the caller nor the provider sets one.
var DefaultReflectionColor = Color{R: 1, G: 0, B: 0}

// Clamp returns the color with every channel limited to [0,1].
func (c Color) Clamp() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Provider is the source of authored geometry.
//
// Vertices and Triangles define the iteration order used by every later stage.
// LoopUV is only called when HasUV reports true. BoundingBox may return
// math.EmptyBox() when the source carries no bounds of its own.
type Provider interface {
	Name() string
	Vertices() []Vertex
	Triangles() []Triangle
	HasUV() bool
	LoopUV(triangle, corner int) UV
	BoundingBox() math.Box
	Transform() Transform
	Attribute(name string) ([]float64, bool)
}
