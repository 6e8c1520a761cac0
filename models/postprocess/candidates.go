// Package postprocess - Turning a decoded probability heatmap into a ranked keypoint list.
package postprocess

import (
	"github.com/nvr-ai/go-superpoint/images"
	"github.com/nvr-ai/go-superpoint/keypoints"
)

// ExtractCandidates emits one keypoint per grid cell whose probability is strictly above
// threshold.
//
// Cells are visited in row-major order and the result preserves that order, with X the
// column and Y the row of the cell. An empty result is valid.
//
// Arguments:
//   - grid: The decoded probability heatmap.
//   - threshold: Minimum probability, exclusive.
//
// Returns:
//   - []keypoints.Keypoint: The candidates in scan order, never nil.
func ExtractCandidates(grid *images.ProbabilityGrid, threshold float64) []keypoints.Keypoint {
	candidates := make([]keypoints.Keypoint, 0)
	if grid == nil {
		return candidates
	}

	for y := 0; y < grid.Height; y++ {
		row := grid.Data[y*grid.Width : (y+1)*grid.Width]
		for x, p := range row {
			if float64(p) > threshold {
				candidates = append(candidates, keypoints.New(float32(x), float32(y), p))
			}
		}
	}
	return candidates
}
