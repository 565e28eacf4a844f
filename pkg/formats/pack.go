package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/meshc/pkg/quantize"
)

// Packing errors.
var (
	ErrSectionLength = errors.New("section length does not match vertex count")
	ErrIndexRange    = errors.New("index references a missing vertex")
	ErrValueRange    = errors.New("component does not fit the section width")
	ErrRawProfile    = errors.New("raw profile has no packed layout")
	ErrPackedProfile = errors.New("packed profile has no raw layout")
)

// Pack serializes s into one buffer laid out for profile p.
func Pack(p Profile, s *Sections) ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProfile, int(p))
	}
	l := p.Layout()
	if l.Raw {
		return nil, fmt.Errorf("%w: %s", ErrRawProfile, p)
	}
	if err := s.validate(l.Encoding); err != nil {
		return nil, err
	}

	w := newSectionWriter(sectionsSize(l.Encoding, s) + p.TrailerSize() + offsetTableSize)

	w.begin()
	w.write(s.Indices)
	w.begin()
	w.writeInts(l.Encoding, s.Coords)
	w.begin()
	w.writeInts(l.Encoding, s.Normals)
	w.begin()
	w.write(s.UVs)

	if l.Reflection {
		w.write(s.ReflectionColor)
	}
	if l.Rotation {
		w.write(s.Rotation)
	}
	if l.Scale {
		w.write(s.Scale)
	}
	if l.Majority {
		w.write(s.Majority)
	}

	w.write(w.offsets)
	if w.err != nil {
		return nil, fmt.Errorf("writing sections: %w", w.err)
	}
	return w.buf.Bytes(), nil
}

func (s *Sections) validate(enc quantize.Encoding) error {
	n := s.VertexCount()
	coords, normals := len(s.Coords), len(s.Normals)
	if enc == quantize.Float32 {
		coords, normals = len(s.FloatCoords), len(s.FloatNormals)
	}
	if coords != n*3 || normals != n*3 {
		return fmt.Errorf("%w: %d vertices, %d coords, %d normals", ErrSectionLength, n, coords, normals)
	}
	if len(s.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a whole number of triangles", ErrSectionLength, len(s.Indices))
	}
	for i, idx := range s.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: index %d = %d, %d vertices", ErrIndexRange, i, idx, n)
		}
	}
	if enc == quantize.BoxRelative8 {
		for i, v := range s.Coords {
			if v < -128 || v > 127 {
				return fmt.Errorf("%w: coord %d = %d", ErrValueRange, i, v)
			}
		}
	}
	return nil
}

func sectionsSize(enc quantize.Encoding, s *Sections) int {
	n := s.VertexCount()
	return len(s.Indices)*2 + n*3*enc.Width()*2 + n
}

// sectionWriter appends little-endian values and records section offsets.
type sectionWriter struct {
	buf     *bytes.Buffer
	offsets []uint32
	err     error
}

func newSectionWriter(capacity int) *sectionWriter {
	return &sectionWriter{buf: bytes.NewBuffer(make([]byte, 0, capacity))}
}

// begin marks the start of a new variable-length section.
func (w *sectionWriter) begin() {
	w.offsets = append(w.offsets, uint32(w.buf.Len()))
}

func (w *sectionWriter) write(v any) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.buf, binary.LittleEndian, v)
}

// writeInts stores integer components at the encoding's width.
func (w *sectionWriter) writeInts(enc quantize.Encoding, v []int16) {
	if enc != quantize.BoxRelative8 {
		w.write(v)
		return
	}
	b := make([]int8, len(v))
	for i, x := range v {
		b[i] = int8(x)
	}
	w.write(b)
}
