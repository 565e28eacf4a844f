// Package quantize converts mesh positions and normals to fixed-width integers.
//
// Two encodings exist. BoxRelative8 maps every axis of the bounding box onto
// the signed byte range. World16 moves positions into world space first and
// scales unit coordinates onto the signed 16-bit range. Every conversion
// rounds half away from zero and saturates at the target width; the number
// of saturated components is reported in Result.Saturated.
package quantize

import (
	"fmt"
	"math"

	"github.com/Faultbox/meshc/pkg/geometry"
)

// Encoding selects how positions and normals are stored.
type Encoding int

const (
	BoxRelative8 Encoding = iota // int8, relative to the bounding box
	World16                      // int16, world space, unit range
	Float32                      // float32, untransformed
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case BoxRelative8:
		return "box-relative-8"
	case World16:
		return "world-16"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// Width returns the byte size of one stored component.
func (e Encoding) Width() int {
	switch e {
	case BoxRelative8:
		return 1
	case World16:
		return 2
	default:
		return 4
	}
}

const (
	posScale8    = 255
	posBias8     = 128
	normalScale8 = 127
	scale16      = 32767
)

// Result holds quantized arrays, three components per vertex in vertex order.
// Coords and Normals are filled by the integer encodings, the Float fields by
// Float32. BoxRelative8 values always fit in int8.
type Result struct {
	Encoding Encoding
	Coords   []int16
	Normals  []int16

	FloatCoords  []float32
	FloatNormals []float32

	// Saturated counts components that fell outside the target range and
	// were clamped.
	Saturated int
}

// Quantize encodes m's vertices with enc.
func Quantize(m *geometry.Mesh, enc Encoding) (*Result, error) {
	n := len(m.Vertices) * 3
	r := &Result{Encoding: enc}

	switch enc {
	case BoxRelative8:
		r.Coords = make([]int16, n)
		r.Normals = make([]int16, n)
		lo, size := m.Bounds.Min, m.Size()
		for i, v := range m.Vertices {
			for axis := 0; axis < 3; axis++ {
				q, clamped := BoxRelative(v.Position.Axis(axis), lo.Axis(axis), size.Axis(axis))
				r.Coords[i*3+axis] = int16(q)
				r.count(clamped)

				nq, clamped := Saturate8(Round(v.Normal.Axis(axis) * normalScale8))
				r.Normals[i*3+axis] = int16(nq)
				r.count(clamped)
			}
		}

	case World16:
		r.Coords = make([]int16, n)
		r.Normals = make([]int16, n)
		for i, v := range m.Vertices {
			p := m.Transform.Apply(v.Position)
			nrm := m.Transform.ApplyNormal(v.Normal)
			for axis := 0; axis < 3; axis++ {
				q, clamped := Saturate16(Round(p.Axis(axis) * scale16))
				r.Coords[i*3+axis] = q
				r.count(clamped)

				nq, clamped := Saturate16(Round(nrm.Axis(axis) * scale16))
				r.Normals[i*3+axis] = nq
				r.count(clamped)
			}
		}

	case Float32:
		r.FloatCoords = make([]float32, n)
		r.FloatNormals = make([]float32, n)
		for i, v := range m.Vertices {
			for axis := 0; axis < 3; axis++ {
				r.FloatCoords[i*3+axis] = float32(v.Position.Axis(axis))
				r.FloatNormals[i*3+axis] = float32(v.Normal.Axis(axis))
			}
		}

	default:
		return nil, fmt.Errorf("quantize: unknown encoding %v", enc)
	}

	return r, nil
}

func (r *Result) count(clamped bool) {
	if clamped {
		r.Saturated++
	}
}

// Round rounds to the nearest integer, ties away from zero.
func Round(x float64) float64 {
	return math.Round(x)
}

// BoxRelative quantizes one coordinate against its axis: 0 when the axis is
// degenerate, otherwise round((p-min)/size*255) - 128.
func BoxRelative(p, lo, size float64) (int8, bool) {
	if size <= 0 {
		return 0, false
	}
	return Saturate8(Round((p-lo)/size*posScale8) - posBias8)
}

// Dequantize8 inverts BoxRelative: (q+128)/255*size + min.
func Dequantize8(q int8, lo, size float64) float64 {
	return (float64(q)+posBias8)/posScale8*size + lo
}

// Dequantize16 inverts the World16 scaling.
func Dequantize16(q int16) float64 {
	return float64(q) / scale16
}

// Saturate8 converts an already rounded value to int8, clamping out-of-range
// values. The second result reports whether clamping happened.
func Saturate8(x float64) (int8, bool) {
	switch {
	case math.IsNaN(x):
		return 0, true
	case x > math.MaxInt8:
		return math.MaxInt8, true
	case x < math.MinInt8:
		return math.MinInt8, true
	}
	return int8(x), false
}

// Saturate16 is Saturate8 for int16.
func Saturate16(x float64) (int16, bool) {
	switch {
	case math.IsNaN(x):
		return 0, true
	case x > math.MaxInt16:
		return math.MaxInt16, true
	case x < math.MinInt16:
		return math.MinInt16, true
	}
	return int16(x), false
}
