package images

import "fmt"

// Size is a target image resolution, width first.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ModelSize is the resolution the decoder grid was produced at. It is ordered height
// first, the way tensor shapes are, and must not be confused with Size.
type ModelSize struct {
	Height int `json:"height" yaml:"height"`
	Width  int `json:"width" yaml:"width"`
}

// ModelSizeOf returns the model size of a decoded grid.
func ModelSizeOf(g *ProbabilityGrid) ModelSize {
	return ModelSize{Height: g.Height, Width: g.Width}
}

// ScaleTo returns the independent horizontal and vertical factors that map coordinates
// from the model frame into the target resolution. A non-positive model dimension yields
// a factor of 1 on that axis.
//
// Arguments:
//   - target: The resolution coordinates are mapped into.
//
// Returns:
//   - scaleX: target.Width / m.Width.
//   - scaleY: target.Height / m.Height.
func (m ModelSize) ScaleTo(target Size) (scaleX, scaleY float32) {
	scaleX, scaleY = 1, 1
	if m.Width > 0 {
		scaleX = float32(target.Width) / float32(m.Width)
	}
	if m.Height > 0 {
		scaleY = float32(target.Height) / float32(m.Height)
	}
	return scaleX, scaleY
}
