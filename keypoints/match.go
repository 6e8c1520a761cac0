package keypoints

import "github.com/chewxy/math32"

// KeypointMatch pairs two keypoints from different images with the distance between them.
type KeypointMatch struct {
	Keypoint1 Keypoint `json:"keypoint1"`
	Keypoint2 Keypoint `json:"keypoint2"`
	Distance  float32  `json:"distance"`
}

// NewMatch builds a match and records the distance between the two keypoints.
func NewMatch(kp1, kp2 Keypoint) KeypointMatch {
	return KeypointMatch{
		Keypoint1: kp1,
		Keypoint2: kp2,
		Distance:  kp1.DistanceTo(kp2),
	}
}

// MatchNearest pairs keypoints of a and b that are each other's nearest neighbour by
// position and lie no further apart than maxDistance.
//
// Matches are returned in the order of their keypoint in a. Ties in distance are resolved
// towards the lower index so the result is deterministic.
//
// Arguments:
//   - a: Keypoints of the first image.
//   - b: Keypoints of the second image, in the same coordinate frame as a.
//   - maxDistance: The largest accepted distance between matched keypoints.
//
// Returns:
//   - The mutual nearest-neighbour matches. Nil if either input is empty.
func MatchNearest(a, b []Keypoint, maxDistance float32) []KeypointMatch {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	nearestInB := make([]int, len(a))
	for i := range a {
		nearestInB[i] = nearest(a[i], b)
	}
	nearestInA := make([]int, len(b))
	for j := range b {
		nearestInA[j] = nearest(b[j], a)
	}

	var matches []KeypointMatch
	for i, j := range nearestInB {
		if nearestInA[j] != i {
			continue
		}
		m := NewMatch(a[i], b[j])
		if m.Distance <= maxDistance {
			matches = append(matches, m)
		}
	}
	return matches
}

func nearest(k Keypoint, candidates []Keypoint) int {
	best := 0
	bestDistance := math32.Inf(1)
	for i, c := range candidates {
		if d := k.DistanceTo(c); d < bestDistance {
			best = i
			bestDistance = d
		}
	}
	return best
}
