// Package palette resolves texture coordinates to cells of the shared 16x16
// palette atlas.
package palette

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// GridSize is the number of cells along each atlas edge.
const GridSize = 16

// CellCount is the number of addressable palette cells.
const CellCount = GridSize * GridSize

// ErrNoAtlas is reported when color sampling is requested without an atlas.
var ErrNoAtlas = errors.New("palette atlas required but not loaded")

// RGB is a color with channels in [0,1].
type RGB struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
}

// Atlas is a 16x16 grid of palette colors.
//
// Sample addresses texels with rows counted bottom-to-top, the way GL and the
// authoring tool store image rows; decoded images are stored top-to-bottom.
type Atlas struct {
	Name  string
	cells [CellCount]RGB
}

// NewAtlas builds an atlas from img. Images larger or smaller than 16x16 are
// resampled with nearest-neighbour so each cell takes the color of its center.
func NewAtlas(name string, img image.Image) (*Atlas, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("atlas %q: empty image", name)
	}

	grid := image.NewNRGBA(image.Rect(0, 0, GridSize, GridSize))
	draw.NearestNeighbor.Scale(grid, grid.Bounds(), img, b, draw.Src, nil)

	a := &Atlas{Name: name}
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			c := grid.NRGBAAt(x, y)
			a.cells[y*GridSize+x] = RGB{
				R: float64(c.R) / 255,
				G: float64(c.G) / 255,
				B: float64(c.B) / 255,
			}
		}
	}
	return a, nil
}

// Sample returns the color of texel (u, v) where v counts rows from the bottom.
// Out-of-range texels are clamped to the grid.
func (a *Atlas) Sample(u, v int) RGB {
	u = clampIndex(u)
	v = clampIndex(v)
	row := GridSize - 1 - v
	return a.cells[row*GridSize+u]
}

// Image renders the atlas back to a 16x16 image (top row first).
func (a *Atlas) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, GridSize, GridSize))
	for i, c := range a.cells {
		img.SetNRGBA(i%GridSize, i/GridSize, color.NRGBA{
			R: uint8(c.R*255 + 0.5),
			G: uint8(c.G*255 + 0.5),
			B: uint8(c.B*255 + 0.5),
			A: 255,
		})
	}
	return img
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > GridSize-1 {
		return GridSize - 1
	}
	return i
}
