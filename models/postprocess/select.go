package postprocess

import "github.com/nvr-ai/go-superpoint/keypoints"

// SelectTopK keeps the maxKeypoints highest scoring keypoints.
//
// A nil limit returns kps unchanged, in its input order. Otherwise the result is sorted by
// descending score (stable) and truncated to min(*maxKeypoints, len(kps)); a limit <= 0
// yields an empty slice.
func SelectTopK(kps []keypoints.Keypoint, maxKeypoints *int) []keypoints.Keypoint {
	if maxKeypoints == nil {
		return kps
	}

	limit := *maxKeypoints
	if limit <= 0 {
		return []keypoints.Keypoint{}
	}

	sorted := SortByScore(kps)
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}
