package postprocess

import (
	"github.com/nvr-ai/go-superpoint/images"
	"github.com/nvr-ai/go-superpoint/keypoints"
)

// Rescale maps keypoints from decoder grid coordinates to the original image resolution.
//
// X is multiplied by original.Width / model.Width and Y by original.Height / model.Height.
// Score, Scale and Angle are carried over and the order of kps is preserved. The work is
// split across workers goroutines (see images.Parallel), each filling its own range of the
// output.
//
// Arguments:
//   - kps: Keypoints in grid coordinates. Not modified.
//   - original: Target image size, width first.
//   - model: Decoder grid size, height first.
//   - workers: Goroutine count, <= 0 for one per CPU.
//
// Returns:
//   - []keypoints.Keypoint: A new slice of the same length as kps.
func Rescale(kps []keypoints.Keypoint, original images.Size, model images.ModelSize, workers int) []keypoints.Keypoint {
	scaleX, scaleY := model.ScaleTo(original)
	out := make([]keypoints.Keypoint, len(kps))

	images.Parallel(len(kps), workers, func(start, end int) {
		for i := start; i < end; i++ {
			kp := kps[i]
			kp.X *= scaleX
			kp.Y *= scaleY
			out[i] = kp
		}
	})

	return out
}
