// Package export runs the quantized mesh pipeline: extract, quantize and
// resolve palette cells, pack, then write the result next to its siblings.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshc/internal/config"
	"github.com/Faultbox/meshc/pkg/encoding"
	"github.com/Faultbox/meshc/pkg/formats"
	"github.com/Faultbox/meshc/pkg/geometry"
	"github.com/Faultbox/meshc/pkg/palette"
	"github.com/Faultbox/meshc/pkg/quantize"
)

// ErrNameCollision is returned by ExportAll when a mesh would write over the
// files of a mesh exported earlier in the same batch.
var ErrNameCollision = errors.New("output name already used")

// ReportExt is appended to the mesh file name for the color report.
const ReportExt = ".colors.yaml"

// AtlasSource loads palette atlases by name. *assets.Library implements it.
type AtlasSource interface {
	Atlas(name string) (*palette.Atlas, error)
}

// Writer exports meshes with one configured profile.
type Writer struct {
	cfg     *config.Config
	atlases AtlasSource
	log     *zap.Logger
}

// Result describes one exported mesh.
type Result struct {
	Mesh      string
	Profile   formats.Profile
	Files     []string
	Vertices  int
	Triangles int

	// Saturated counts coordinate or normal components clamped to the
	// encoding range; ClampedUVs counts corners clamped onto the palette grid.
	Saturated  int
	ClampedUVs int

	Colors      []palette.CellColor
	Majority    uint8
	HasMajority bool
}

// New creates a Writer. atlases may be nil when the profile never samples
// colors; log may be nil.
func New(cfg *config.Config, atlases AtlasSource, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{cfg: cfg, atlases: atlases, log: log}
}

// Export converts one mesh and writes its output files. Existing files are
// overwritten. Nothing is written when a step before the write fails.
func (w *Writer) Export(p geometry.Provider) (*Result, error) {
	profile := w.cfg.Export.Profile
	if !profile.Valid() {
		return nil, fmt.Errorf("%w: %d", formats.ErrUnknownProfile, int(profile))
	}
	layout := profile.Layout()

	m, err := geometry.Extract(p, geometry.Options{ReflectionColor: w.cfg.ReflectionOverride()})
	if err != nil {
		return nil, err
	}
	log := w.log.With(zap.String("mesh", m.Name), zap.Stringer("profile", profile))

	q, err := quantize.Quantize(m, layout.Encoding)
	if err != nil {
		return nil, err
	}

	atlas, err := w.atlas(m.Name, layout)
	if err != nil {
		return nil, err
	}
	cells, err := palette.Resolve(m, atlas, profile.ResolverOptions())
	if err != nil {
		return nil, err
	}

	if q.Saturated > 0 {
		log.Warn("quantization saturated",
			zap.Int("components", q.Saturated),
			zap.Stringer("encoding", layout.Encoding))
	}
	if cells.Clamped > 0 {
		log.Debug("uv clamped onto palette grid", zap.Int("corners", cells.Clamped))
	}

	files, err := w.pack(profile, formats.NewSections(m, q, cells))
	if err != nil {
		return nil, err
	}

	res := &Result{
		Mesh:        m.Name,
		Profile:     profile,
		Vertices:    len(m.Vertices),
		Triangles:   len(m.Triangles),
		Saturated:   q.Saturated,
		ClampedUVs:  cells.Clamped,
		Colors:      cells.Colors,
		Majority:    cells.Majority,
		HasMajority: cells.HasMajority,
	}

	if layout.SampleColors && w.cfg.Export.WriteReport {
		report, err := yaml.Marshal(colorReport{
			Mesh:   m.Name,
			Atlas:  atlas.Name,
			Colors: cells.Colors,
		})
		if err != nil {
			return nil, fmt.Errorf("encoding color report: %w", err)
		}
		files = append(files, formats.RawFile{Ext: ReportExt, Data: report})
	}

	if err := os.MkdirAll(w.cfg.Export.OutputDir, 0755); err != nil {
		return nil, err
	}
	stem := encoding.FileName(m.Name)
	for _, f := range files {
		path := filepath.Join(w.cfg.Export.OutputDir, stem+f.Ext)
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			// Leave no partial set of sibling files behind.
			for _, written := range res.Files {
				_ = os.Remove(written)
			}
			return nil, err
		}
		res.Files = append(res.Files, path)
		log.Debug("wrote file", zap.String("path", path), zap.Int("bytes", len(f.Data)))
	}

	log.Info("exported mesh",
		zap.Int("vertices", res.Vertices),
		zap.Int("triangles", res.Triangles))
	return res, nil
}

// ExportAll exports every provider in order. A failing mesh does not stop
// the rest; the failures are combined into the returned error. A mesh whose
// file name matches one already exported in this batch (ignoring case) fails
// with ErrNameCollision instead of overwriting it.
func (w *Writer) ExportAll(providers []geometry.Provider) ([]*Result, error) {
	var (
		results []*Result
		errs    error
	)
	owners := make(map[string]string)
	fail := func(name string, err error) {
		w.log.Error("export failed", zap.String("mesh", name), zap.Error(err))
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
	}

	for _, p := range providers {
		key := strings.ToLower(encoding.FileName(p.Name()))
		if owner, ok := owners[key]; ok {
			fail(p.Name(), fmt.Errorf("%w: %q by mesh %q", ErrNameCollision, key, owner))
			continue
		}
		res, err := w.Export(p)
		if err != nil {
			fail(p.Name(), err)
			continue
		}
		owners[key] = p.Name()
		results = append(results, res)
	}
	return results, errs
}

// atlas loads the configured atlas when the profile samples colors.
func (w *Writer) atlas(mesh string, layout formats.Layout) (*palette.Atlas, error) {
	if !layout.SampleColors {
		return nil, nil
	}
	if w.atlases == nil {
		return nil, &geometry.PreconditionError{Mesh: mesh, Err: palette.ErrNoAtlas}
	}
	a, err := w.atlases.Atlas(w.cfg.Atlas.Name)
	if err != nil {
		return nil, &geometry.PreconditionError{
			Mesh: mesh,
			Err:  fmt.Errorf("%w: %s: %v", palette.ErrNoAtlas, w.cfg.Atlas.Name, err),
		}
	}
	return a, nil
}

func (w *Writer) pack(p formats.Profile, s *formats.Sections) ([]formats.RawFile, error) {
	if p.Layout().Raw {
		return formats.PackRaw(p, s)
	}
	data, err := formats.Pack(p, s)
	if err != nil {
		return nil, err
	}
	return []formats.RawFile{{Ext: formats.ExtData, Data: data}}, nil
}

type colorReport struct {
	Mesh   string              `yaml:"mesh"`
	Atlas  string              `yaml:"atlas"`
	Colors []palette.CellColor `yaml:"colors"`
}
