package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Parsing errors.
var (
	ErrTruncatedBlob  = errors.New("truncated mesh blob")
	ErrInvalidOffsets = errors.New("invalid section offsets")
)

// Blob is a parsed packed mesh.
type Blob struct {
	Sections
	Profile Profile
	Offsets [4]uint32
}

// TriangleCount returns the number of triangles in the blob.
func (b *Blob) TriangleCount() int {
	return len(b.Indices) / 3
}

// Parse decodes a blob packed for profile p. It reads the buffer the way the
// runtime loader does: offset table from the last 16 bytes, trailer fields
// backwards from there.
func Parse(p Profile, data []byte) (*Blob, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProfile, int(p))
	}
	l := p.Layout()
	if l.Raw {
		return nil, fmt.Errorf("%w: %s", ErrRawProfile, p)
	}

	trailerStart := len(data) - offsetTableSize - p.TrailerSize()
	if trailerStart < 0 {
		return nil, ErrTruncatedBlob
	}

	b := &Blob{Profile: p}
	table := data[len(data)-offsetTableSize:]
	for i := range b.Offsets {
		b.Offsets[i] = binary.LittleEndian.Uint32(table[i*4:])
	}
	if err := checkOffsets(b.Offsets, trailerStart); err != nil {
		return nil, err
	}

	width := l.Encoding.Width()
	section := func(i int) []byte {
		end := uint32(trailerStart)
		if i < len(b.Offsets)-1 {
			end = b.Offsets[i+1]
		}
		return data[b.Offsets[i]:end]
	}

	indices, coords, normals, uvs := section(0), section(1), section(2), section(3)
	n := len(uvs)
	if len(indices)%6 != 0 || len(coords) != n*3*width || len(normals) != n*3*width {
		return nil, fmt.Errorf("%w: sections do not describe %d vertices", ErrInvalidOffsets, n)
	}

	b.Indices = make([]uint16, len(indices)/2)
	for i := range b.Indices {
		b.Indices[i] = binary.LittleEndian.Uint16(indices[i*2:])
	}
	b.Coords = readInts(coords, width)
	b.Normals = readInts(normals, width)
	b.UVs = append([]uint8(nil), uvs...)

	r := bytes.NewReader(data[trailerStart : len(data)-offsetTableSize])
	if l.Reflection {
		if err := binary.Read(r, binary.LittleEndian, &b.ReflectionColor); err != nil {
			return nil, fmt.Errorf("reading reflection color: %w", err)
		}
	}
	if l.Rotation {
		if err := binary.Read(r, binary.LittleEndian, &b.Rotation); err != nil {
			return nil, fmt.Errorf("reading rotation: %w", err)
		}
	}
	if l.Scale {
		if err := binary.Read(r, binary.LittleEndian, &b.Scale); err != nil {
			return nil, fmt.Errorf("reading scale: %w", err)
		}
	}
	if l.Majority {
		if err := binary.Read(r, binary.LittleEndian, &b.Majority); err != nil {
			return nil, fmt.Errorf("reading majority: %w", err)
		}
	}

	return b, nil
}

func checkOffsets(offsets [4]uint32, end int) error {
	if offsets[0] != 0 {
		return fmt.Errorf("%w: indices start at %d", ErrInvalidOffsets, offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return fmt.Errorf("%w: offset %d (%d) precedes offset %d (%d)", ErrInvalidOffsets, i, offsets[i], i-1, offsets[i-1])
		}
	}
	if int64(offsets[3]) > int64(end) {
		return fmt.Errorf("%w: uvs start at %d past section end %d", ErrInvalidOffsets, offsets[3], end)
	}
	return nil
}

func readInts(data []byte, width int) []int16 {
	out := make([]int16, len(data)/width)
	for i := range out {
		if width == 1 {
			out[i] = int16(int8(data[i]))
		} else {
			out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
	}
	return out
}
