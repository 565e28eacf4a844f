package formats

import "fmt"

// RawFile is one section of a raw profile, written to its own file.
type RawFile struct {
	Ext  string
	Data []byte
}

// PackRaw serializes s as separate unpacked arrays, one per section, with no
// trailer and no offset table.
func PackRaw(p Profile, s *Sections) ([]RawFile, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProfile, int(p))
	}
	l := p.Layout()
	if !l.Raw {
		return nil, fmt.Errorf("%w: %s", ErrPackedProfile, p)
	}
	if err := s.validate(l.Encoding); err != nil {
		return nil, err
	}

	var coords, normals any = s.Coords, s.Normals
	if l.Encoding.Width() == 4 {
		coords, normals = s.FloatCoords, s.FloatNormals
	}

	sections := []struct {
		ext string
		v   any
	}{
		{ExtVertices, coords},
		{ExtNormals, normals},
		{ExtIndices, s.Indices},
		{ExtUVs, s.UVs},
	}

	files := make([]RawFile, 0, len(sections))
	for _, sec := range sections {
		w := newSectionWriter(0)
		w.write(sec.v)
		if w.err != nil {
			return nil, fmt.Errorf("writing %s: %w", sec.ext, w.err)
		}
		files = append(files, RawFile{Ext: sec.ext, Data: w.buf.Bytes()})
	}
	return files, nil
}
