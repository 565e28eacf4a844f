package formats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/meshc/pkg/palette"
	"github.com/Faultbox/meshc/pkg/quantize"
)

// ErrUnknownProfile is returned by ParseProfile for names outside the closed set.
var ErrUnknownProfile = errors.New("unknown profile")

// Profile selects one of the fixed quantized mesh layouts.
type Profile int

const (
	ProfileBasic               Profile = iota // int8, no trailer
	ProfileReflective                         // int8, reflection color + rotation + scale
	ProfileTransformed                        // int8, rotation + scale
	ProfileWorldScaled                        // int16 world space, no trailer
	ProfileWorldScaledMajority                // int16 world space, majority cell
	ProfileRawFloat                           // unpacked float32 arrays
	ProfileRawInt16                           // unpacked int16 world-space arrays
)

// Trailer field sizes in bytes.
const (
	reflectionSize  = 3 * 4
	rotationSize    = 4 * 4
	scaleSize       = 3 * 4
	majoritySize    = 1
	offsetTableSize = 4 * 4
)

// Layout describes everything a profile fixes.
type Layout struct {
	Name     string
	Encoding quantize.Encoding

	// Optional trailer fields, always written in this order.
	Reflection bool
	Rotation   bool
	Scale      bool
	Majority   bool

	// SampleColors enables the resolver's diagnostic color sampling.
	SampleColors bool

	// Raw profiles write one file per section and no offset table.
	Raw bool
}

var layouts = [...]Layout{
	ProfileBasic: {
		Name:     "basic",
		Encoding: quantize.BoxRelative8,
	},
	ProfileReflective: {
		Name:         "reflective",
		Encoding:     quantize.BoxRelative8,
		Reflection:   true,
		Rotation:     true,
		Scale:        true,
		SampleColors: true,
	},
	ProfileTransformed: {
		Name:     "transformed",
		Encoding: quantize.BoxRelative8,
		Rotation: true,
		Scale:    true,
	},
	ProfileWorldScaled: {
		Name:     "world-scaled",
		Encoding: quantize.World16,
	},
	ProfileWorldScaledMajority: {
		Name:     "world-scaled-majority",
		Encoding: quantize.World16,
		Majority: true,
	},
	ProfileRawFloat: {
		Name:     "raw-float",
		Encoding: quantize.Float32,
		Raw:      true,
	},
	ProfileRawInt16: {
		Name:     "raw-int16",
		Encoding: quantize.World16,
		Raw:      true,
	},
}

// Profiles returns every profile in declaration order.
func Profiles() []Profile {
	out := make([]Profile, len(layouts))
	for i := range layouts {
		out[i] = Profile(i)
	}
	return out
}

// Valid reports whether p is one of the declared profiles.
func (p Profile) Valid() bool {
	return p >= 0 && int(p) < len(layouts)
}

// Layout returns the profile's layout. It panics on an invalid profile.
func (p Profile) Layout() Layout {
	if !p.Valid() {
		panic(fmt.Sprintf("formats: invalid profile %d", int(p)))
	}
	return layouts[p]
}

// String returns the profile name.
func (p Profile) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
	return layouts[p].Name
}

// ParseProfile looks up a profile by name (case-insensitive).
func ParseProfile(name string) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, l := range layouts {
		if l.Name == name {
			return Profile(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// MarshalText implements encoding.TextMarshaler.
func (p Profile) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProfile, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Profile) UnmarshalText(text []byte) error {
	v, err := ParseProfile(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ResolverOptions returns the palette resolver modes the profile enables.
func (p Profile) ResolverOptions() palette.Options {
	l := p.Layout()
	return palette.Options{SampleColors: l.SampleColors, Majority: l.Majority}
}

// TrailerSize returns the byte size of the scalar trailer fields.
func (p Profile) TrailerSize() int {
	l := p.Layout()
	n := 0
	if l.Reflection {
		n += reflectionSize
	}
	if l.Rotation {
		n += rotationSize
	}
	if l.Scale {
		n += scaleSize
	}
	if l.Majority {
		n += majoritySize
	}
	return n
}

// Extensions returns the output file extensions, including the leading dot.
func (p Profile) Extensions() []string {
	if p.Layout().Raw {
		return []string{ExtVertices, ExtNormals, ExtIndices, ExtUVs}
	}
	return []string{ExtData}
}

// Output file extensions.
const (
	ExtData     = ".data"
	ExtVertices = ".vertices"
	ExtNormals  = ".normals"
	ExtIndices  = ".indices"
	ExtUVs      = ".uvs"
)
