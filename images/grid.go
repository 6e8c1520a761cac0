// Package images - Dense probability grids and image geometry.
package images

import (
	"fmt"

	"gorgonia.org/tensor"
)

// ProbabilityGrid is a dense, row-major 2D map of per-pixel keypoint probabilities.
//
// A grid produced by the decoder holds values in [0, 1]. Data[y*Width+x] is the value at
// column x, row y.
type ProbabilityGrid struct {
	Width  int
	Height int
	Data   []float32
}

// NewProbabilityGrid allocates a zeroed grid.
//
// Arguments:
//   - width: Number of columns.
//   - height: Number of rows.
//
// Returns:
//   - A grid with Width*Height zero values.
func NewProbabilityGrid(width, height int) *ProbabilityGrid {
	return &ProbabilityGrid{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
}

// At returns the value at column x, row y.
func (g *ProbabilityGrid) At(x, y int) float32 {
	return g.Data[y*g.Width+x]
}

// Set stores v at column x, row y.
func (g *ProbabilityGrid) Set(x, y int, v float32) {
	g.Data[y*g.Width+x] = v
}

// Len returns the number of cells in the grid.
func (g *ProbabilityGrid) Len() int {
	return g.Width * g.Height
}

// Range returns the smallest and largest values in the grid. An empty grid returns 0, 0.
//
// Heatmap renderers use the range to stretch probabilities over a colour ramp.
func (g *ProbabilityGrid) Range() (lo, hi float32) {
	if len(g.Data) == 0 {
		return 0, 0
	}
	lo, hi = g.Data[0], g.Data[0]
	for _, v := range g.Data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Dense wraps the grid in a [Height, Width] float32 tensor. The tensor shares the grid's
// backing slice, so writes through either are visible in both.
func (g *ProbabilityGrid) Dense() *tensor.Dense {
	return tensor.New(
		tensor.WithShape(g.Height, g.Width),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(g.Data),
	)
}

func (g *ProbabilityGrid) String() string {
	return fmt.Sprintf("ProbabilityGrid %dx%d", g.Width, g.Height)
}
