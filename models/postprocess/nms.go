package postprocess

import (
	"sort"

	"github.com/nvr-ai/go-superpoint/keypoints"
)

// SortByScore returns a copy of kps ordered by descending score. Equal scores keep their
// input order.
func SortByScore(kps []keypoints.Keypoint) []keypoints.Keypoint {
	sorted := make([]keypoints.Keypoint, len(kps))
	copy(sorted, kps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// ApplyRadiusNMS performs greedy radius Non-Maximum Suppression.
//
// Keypoints are visited in descending score order (stable, so ties keep input order). A
// keypoint is kept when no previously kept keypoint lies strictly closer than radius.
// Keypoints at the exact position of a kept keypoint are always dropped, so a radius of 0
// removes coincident duplicates and nothing else. A negative radius behaves like 0.
//
// Arguments:
//   - kps: Candidate keypoints in any order. Not modified.
//   - radius: Suppression radius in grid units.
//
// Returns:
//   - []keypoints.Keypoint: The surviving keypoints sorted by descending score, never nil.
//
// @example
//
//	kept := ApplyRadiusNMS(candidates, 4)
func ApplyRadiusNMS(kps []keypoints.Keypoint, radius float32) []keypoints.Keypoint {
	if radius < 0 {
		radius = 0
	}

	sorted := SortByScore(kps)
	kept := make([]keypoints.Keypoint, 0, len(sorted))

	for _, candidate := range sorted {
		suppressed := false
		for _, anchor := range kept {
			d := candidate.DistanceTo(anchor)
			if d < radius || d == 0 {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, candidate)
		}
	}

	return kept
}
