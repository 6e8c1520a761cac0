package superpoint

import "fmt"

// ShapeError reports a raw classification tensor whose shape the decoder cannot interpret:
// wrong rank, wrong channel count, a batch larger than one or empty spatial dimensions.
type ShapeError struct {
	// Shape is the offending tensor shape.
	Shape []int
	// Reason describes what is wrong with it.
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid heatmap tensor shape %v: %s", e.Shape, e.Reason)
}

// ScoreConversionError reports tensor data that could not be brought into host memory as
// float32 scores.
type ScoreConversionError struct {
	Reason string
	Err    error
}

func (e *ScoreConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("score conversion failed: %s: %v", e.Reason, e.Err)
	}
	return "score conversion failed: " + e.Reason
}

func (e *ScoreConversionError) Unwrap() error {
	return e.Err
}
