// Package keypoints - Keypoint values produced by the heatmap decoding pipeline.
package keypoints

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Keypoint is a single detected interest point.
//
// X and Y are expressed in whatever frame the producing stage operates in: decoder grid
// coordinates before rescaling, target image coordinates afterwards. Scale and Angle are
// reserved for descriptor metadata and are left nil by the pipeline.
type Keypoint struct {
	// X is the horizontal coordinate (column).
	X float32 `json:"x"`
	// Y is the vertical coordinate (row).
	Y float32 `json:"y"`
	// Score is the keypoint probability in [0, 1].
	Score float32 `json:"score"`
	// Scale is optional descriptor scale.
	Scale *float32 `json:"scale,omitempty"`
	// Angle is optional descriptor orientation.
	Angle *float32 `json:"angle,omitempty"`
}

// New creates a keypoint without scale or angle metadata.
func New(x, y, score float32) Keypoint {
	return Keypoint{X: x, Y: y, Score: score}
}

// NewWithScaleAngle creates a keypoint carrying scale and angle metadata.
func NewWithScaleAngle(x, y, score, scale, angle float32) Keypoint {
	return Keypoint{X: x, Y: y, Score: score, Scale: &scale, Angle: &angle}
}

// DistanceTo returns the Euclidean distance between the positions of two keypoints.
//
// Arguments:
//   - other: The keypoint to measure against.
//
// Returns:
//   - The distance in the keypoints' shared coordinate frame.
func (k Keypoint) DistanceTo(other Keypoint) float32 {
	return math32.Hypot(k.X-other.X, k.Y-other.Y)
}

// Equal reports whether two keypoints hold the same values. Optional fields are compared
// by value, not by pointer identity.
func (k Keypoint) Equal(other Keypoint) bool {
	return k.X == other.X &&
		k.Y == other.Y &&
		k.Score == other.Score &&
		optionalEqual(k.Scale, other.Scale) &&
		optionalEqual(k.Angle, other.Angle)
}

func (k Keypoint) String() string {
	return fmt.Sprintf("Keypoint (%.2f, %.2f) score %.4f", k.X, k.Y, k.Score)
}

func optionalEqual(a, b *float32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
