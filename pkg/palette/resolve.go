package palette

import (
	"math"

	"github.com/Faultbox/meshc/pkg/geometry"
)

// Options enables the optional resolver behaviors.
type Options struct {
	// SampleColors records the atlas color of each cell the first time it is seen.
	SampleColors bool
	// Majority computes the most frequent cell across all triangle corners.
	Majority bool
}

// CellColor is a sampled cell color.
type CellColor struct {
	Cell  uint8 `yaml:"cell"`
	Color RGB   `yaml:"color"`
}

// Result is the resolver output for one mesh.
type Result struct {
	// Cells holds one palette cell per vertex.
	Cells []uint8

	// Colors lists sampled cells in first-encounter order (SampleColors only).
	Colors []CellColor

	// Majority is the most frequent cell (Majority only).
	Majority    uint8
	HasMajority bool

	// Clamped counts corners whose UV fell on or outside the unit square edge
	// and had to be clamped into the grid.
	Clamped int
}

// Cell returns the grid coordinates of (u, v) and whether either one had to be
// clamped into [0,15]. u grows left to right, v top to bottom.
func Cell(u, v float64) (ui, vi int, clamped bool) {
	ui, cu := gridIndex(u)
	vi, cv := gridIndex(1 - v)
	return ui, vi, cu || cv
}

// CellIndex returns the palette cell for (u, v): floor((1-v)*16)*16 + floor(u*16),
// with both grid coordinates clamped to [0,15].
func CellIndex(u, v float64) uint8 {
	ui, vi, _ := Cell(u, v)
	return uint8(vi*GridSize + ui)
}

func gridIndex(x float64) (int, bool) {
	f := math.Floor(x * GridSize)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0, true
	case f > GridSize-1:
		return GridSize - 1, true
	}
	return int(f), false
}

// Resolve assigns palette cells to m's vertices. atlas may be nil unless
// opts.SampleColors is set.
func Resolve(m *geometry.Mesh, atlas *Atlas, opts Options) (*Result, error) {
	if opts.SampleColors && atlas == nil {
		return nil, &geometry.PreconditionError{Mesh: m.Name, Err: ErrNoAtlas}
	}

	r := &Result{Cells: make([]uint8, len(m.Vertices))}
	var seen [CellCount]bool
	var tally [CellCount]int

	for ti, tri := range m.Triangles {
		for corner, vi := range tri {
			uv := m.LoopUVs[ti][corner]
			ui, gv, clamped := Cell(uv.U, uv.V)
			if clamped {
				r.Clamped++
			}
			cell := uint8(gv*GridSize + ui)
			r.Cells[vi] = cell
			tally[cell]++

			if opts.SampleColors && !seen[cell] {
				seen[cell] = true
				c := atlas.Sample(ui, GridSize-1-gv)
				r.Colors = append(r.Colors, CellColor{Cell: cell, Color: RGB{
					R: round3(c.R),
					G: round3(c.G),
					B: round3(c.B),
				}})
			}
		}
	}

	if opts.Majority {
		r.Majority = majority(&tally)
		r.HasMajority = true
	}
	return r, nil
}

// majority returns the most frequent cell; ties go to the lowest index.
func majority(tally *[CellCount]int) uint8 {
	best := 0
	for cell := 1; cell < CellCount; cell++ {
		if tally[cell] > tally[best] {
			best = cell
		}
	}
	return uint8(best)
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
