// Package superpoint - Decoding SuperPoint detector heads into ranked keypoints.
//
// The SuperPoint detector head emits, for every 8x8 pixel cell of the input image, 65
// logits: one per pixel of the cell plus a "dustbin" meaning no keypoint in the cell. This
// package turns that compact [65, Hc, Wc] tensor into a dense probability heatmap and then
// into a thresholded, suppressed and ranked list of keypoints.
package superpoint

import (
	"github.com/chewxy/math32"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-superpoint/config"
	"github.com/nvr-ai/go-superpoint/images"
)

const (
	// CellSize is the side length of the pixel block covered by one decoder cell.
	CellSize = config.CellSize
	// CellChannels is the number of per-pixel channels in a cell.
	CellChannels = CellSize * CellSize
	// NumChannels is the channel count of the detector head: the cell pixels plus the dustbin.
	NumChannels = CellChannels + 1
	// DustbinChannel is the index of the "no keypoint in this cell" class.
	DustbinChannel = CellChannels
)

// Decoder expands raw detector logits into a dense probability grid.
//
// The zero value decodes with one goroutine per CPU. Decoding is a pure function of its
// input, so a Decoder may be shared between goroutines.
type Decoder struct {
	// Workers is the number of goroutines the cell rows are split across. Values <= 0 use
	// runtime.NumCPU(), 1 decodes on the calling goroutine.
	Workers int
}

// Decode expands a [65, Hc, Wc] or [1, 65, Hc, Wc] tensor on the calling goroutine.
// See Decoder.Decode.
func Decode(t tensor.Tensor) (*images.ProbabilityGrid, error) {
	return Decoder{Workers: 1}.Decode(t)
}

// Decode turns the detector logits into a [Hc*8, Wc*8] probability grid.
//
// For every cell it applies a softmax across the 65 channels, drops the dustbin channel and
// writes channel k = r*8 + c to pixel (row i*8 + r, column j*8 + c).
//
// Arguments:
//   - t: The raw detector output, rank 3 or rank 4 with a batch of one.
//
// Returns:
//   - *images.ProbabilityGrid: Width Wc*8, Height Hc*8, every value in [0, 1].
//   - error: *ShapeError if the shape is not decodable, *ScoreConversionError if the data
//     cannot be read as float32 on the host.
func (d Decoder) Decode(t tensor.Tensor) (*images.ProbabilityGrid, error) {
	cells, err := cellShapeOf(t)
	if err != nil {
		return nil, err
	}
	logits, err := hostScores(t)
	if err != nil {
		return nil, err
	}

	grid := images.NewProbabilityGrid(cells.width*CellSize, cells.height*CellSize)
	plane := cells.height * cells.width

	images.Parallel(cells.height, d.Workers, func(start, end int) {
		probs := make([]float32, NumChannels)
		for i := start; i < end; i++ {
			for j := 0; j < cells.width; j++ {
				softmaxCell(logits, i*cells.width+j, plane, probs)

				// Depth-to-space: r selects the row inside the cell, c the column.
				for k := 0; k < CellChannels; k++ {
					r, c := k/CellSize, k%CellSize
					grid.Data[(i*CellSize+r)*grid.Width+j*CellSize+c] = probs[k]
				}
			}
		}
	})

	return grid, nil
}

// Softmax returns the per-cell class distribution of a detector tensor, dustbin included,
// as a [65, Hc, Wc] tensor. The batch dimension of a rank 4 input is dropped.
func Softmax(t tensor.Tensor) (*tensor.Dense, error) {
	cells, err := cellShapeOf(t)
	if err != nil {
		return nil, err
	}
	logits, err := hostScores(t)
	if err != nil {
		return nil, err
	}

	plane := cells.height * cells.width
	out := make([]float32, NumChannels*plane)
	probs := make([]float32, NumChannels)
	for cell := 0; cell < plane; cell++ {
		softmaxCell(logits, cell, plane, probs)
		for ch, p := range probs {
			out[ch*plane+cell] = p
		}
	}

	return tensor.New(
		tensor.WithShape(NumChannels, cells.height, cells.width),
		tensor.WithBacking(out),
	), nil
}

// softmaxCell writes the softmax over the 65 channels of one cell into probs. The logits
// are channel-major, so consecutive channels of a cell are plane values apart.
func softmaxCell(logits []float32, cell, plane int, probs []float32) {
	maxLogit := logits[cell]
	for ch := 1; ch < NumChannels; ch++ {
		if v := logits[ch*plane+cell]; v > maxLogit {
			maxLogit = v
		}
	}

	var sum float32
	for ch := 0; ch < NumChannels; ch++ {
		e := math32.Exp(logits[ch*plane+cell] - maxLogit)
		probs[ch] = e
		sum += e
	}
	for ch := range probs {
		probs[ch] /= sum
	}
}

type cellShape struct {
	height, width int
}

// cellShapeOf validates the detector tensor shape and returns its cell grid dimensions.
func cellShapeOf(t tensor.Tensor) (cellShape, error) {
	if t == nil {
		return cellShape{}, &ShapeError{Reason: "tensor is nil"}
	}

	shape := t.Shape().Clone()
	dims := []int(shape)
	switch len(dims) {
	case 4:
		if dims[0] != 1 {
			return cellShape{}, &ShapeError{Shape: shape, Reason: "batch size must be 1"}
		}
		dims = dims[1:]
	case 3:
	default:
		return cellShape{}, &ShapeError{Shape: shape, Reason: "expected [65, Hc, Wc] or [1, 65, Hc, Wc]"}
	}

	if dims[0] != NumChannels {
		return cellShape{}, &ShapeError{Shape: shape, Reason: "expected 65 channels (64 cell pixels and a dustbin)"}
	}
	if dims[1] <= 0 || dims[2] <= 0 {
		return cellShape{}, &ShapeError{Shape: shape, Reason: "spatial dimensions must be positive"}
	}
	return cellShape{height: dims[1], width: dims[2]}, nil
}
