package postprocess

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-superpoint/images"
	"github.com/nvr-ai/go-superpoint/keypoints"
)

func randomGrid(seed int64, w, h int) *images.ProbabilityGrid {
	r := rand.New(rand.NewSource(seed))
	grid := images.NewProbabilityGrid(w, h)
	for i := range grid.Data {
		grid.Data[i] = r.Float32()
	}
	return grid
}

func randomKeypoints(seed int64, n int) []keypoints.Keypoint {
	r := rand.New(rand.NewSource(seed))
	kps := make([]keypoints.Keypoint, n)
	for i := range kps {
		// Coarse positions and scores so duplicates and ties occur.
		kps[i] = keypoints.New(float32(r.Intn(20)), float32(r.Intn(20)), float32(r.Intn(10))/10)
	}
	return kps
}

func intPtr(v int) *int { return &v }

func TestExtractCandidates(t *testing.T) {
	grid := images.NewProbabilityGrid(3, 2)
	grid.Set(2, 0, 0.9)
	grid.Set(0, 1, 0.6)
	grid.Set(1, 1, 0.5)

	got := ExtractCandidates(grid, 0.5)
	assert.Equal(t, []keypoints.Keypoint{
		keypoints.New(2, 0, 0.9),
		keypoints.New(0, 1, 0.6),
	}, got)
}

func TestExtractCandidatesEmpty(t *testing.T) {
	got := ExtractCandidates(images.NewProbabilityGrid(4, 4), 0)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, ExtractCandidates(nil, 0))
}

func TestExtractCandidatesThresholdMonotonic(t *testing.T) {
	grid := randomGrid(1, 16, 12)
	thresholds := []float64{-1, 0, 0.1, 0.25, 0.5, 0.75, 0.99, 1}

	prev := len(grid.Data) + 1
	for _, threshold := range thresholds {
		got := ExtractCandidates(grid, threshold)
		assert.LessOrEqual(t, len(got), prev, "threshold %v", threshold)
		prev = len(got)

		for _, kp := range got {
			assert.Greater(t, float64(kp.Score), threshold)
			assert.Equal(t, grid.At(int(kp.X), int(kp.Y)), kp.Score)
		}
	}
	assert.Len(t, ExtractCandidates(grid, -1), len(grid.Data))
}

func TestSortByScoreIsStable(t *testing.T) {
	kps := []keypoints.Keypoint{
		keypoints.New(0, 0, 0.5),
		keypoints.New(1, 0, 0.9),
		keypoints.New(2, 0, 0.5),
		keypoints.New(3, 0, 0.9),
	}

	got := SortByScore(kps)
	assert.Equal(t, []float32{1, 3, 0, 2}, xs(got))
	assert.Equal(t, float32(0), kps[0].X, "input must not be reordered")
}

func TestApplyRadiusNMS(t *testing.T) {
	kps := []keypoints.Keypoint{
		keypoints.New(0, 0, 0.5),
		keypoints.New(3, 0, 0.9),
		keypoints.New(10, 10, 0.7),
		keypoints.New(4, 0, 0.8),
	}

	got := ApplyRadiusNMS(kps, 4)
	assert.Equal(t, []keypoints.Keypoint{
		keypoints.New(3, 0, 0.9),
		keypoints.New(10, 10, 0.7),
	}, got)
}

func TestApplyRadiusNMSBoundaryIsKept(t *testing.T) {
	kps := []keypoints.Keypoint{
		keypoints.New(0, 0, 0.9),
		keypoints.New(3, 4, 0.8),
	}

	assert.Len(t, ApplyRadiusNMS(kps, 5), 2)
	assert.Len(t, ApplyRadiusNMS(kps, 5.01), 1)
}

func TestApplyRadiusNMSCollapsesDuplicates(t *testing.T) {
	kps := []keypoints.Keypoint{
		keypoints.New(2, 2, 0.4),
		keypoints.New(2, 2, 0.8),
		keypoints.New(5, 5, 0.6),
		keypoints.New(2, 2, 0.8),
	}

	for _, radius := range []float32{0, -3} {
		got := ApplyRadiusNMS(kps, radius)
		assert.Equal(t, []keypoints.Keypoint{
			keypoints.New(2, 2, 0.8),
			keypoints.New(5, 5, 0.6),
		}, got, "radius %v", radius)
	}
}

func TestApplyRadiusNMSInvariants(t *testing.T) {
	kps := randomKeypoints(7, 300)
	radii := []float32{0, 1, 2, 3.5, 5, 8, 30}

	for _, radius := range radii {
		kept := ApplyRadiusNMS(kps, radius)
		require.NotEmpty(t, kept)

		for i := range kept {
			if i > 0 {
				assert.GreaterOrEqual(t, kept[i-1].Score, kept[i].Score)
			}
			for j := i + 1; j < len(kept); j++ {
				d := kept[i].DistanceTo(kept[j])
				assert.Greater(t, d, float32(0))
				assert.GreaterOrEqual(t, d, radius)
			}
		}

		// Every dropped keypoint has a kept neighbour that outranks it.
		for _, kp := range kps {
			covered := false
			for _, k := range kept {
				d := kp.DistanceTo(k)
				if k.Score >= kp.Score && (d < radius || d == 0) {
					covered = true
					break
				}
			}
			assert.True(t, covered, "%v not covered at radius %v", kp, radius)
		}
	}
}

func TestApplyRadiusNMSRadiusMonotonic(t *testing.T) {
	// Evenly spaced points with scores falling left to right.
	var kps []keypoints.Keypoint
	for i := 0; i < 40; i++ {
		kps = append(kps, keypoints.New(float32(i)*1.5, 0, 1-float32(i)/100))
	}

	prev := len(kps)
	for radius := float32(0); radius <= 20; radius += 0.25 {
		kept := ApplyRadiusNMS(kps, radius)
		require.LessOrEqual(t, len(kept), prev, "radius %v", radius)
		prev = len(kept)
	}
	assert.Len(t, ApplyRadiusNMS(kps, 1.5), len(kps))
	assert.Len(t, ApplyRadiusNMS(kps, 1.6), len(kps)/2)
}

func TestApplyRadiusNMSIsGreedy(t *testing.T) {
	// Suppressing b at the larger radius frees both c and d.
	kps := []keypoints.Keypoint{
		keypoints.New(0, 2.5, 0.9),
		keypoints.New(0, 0, 0.8),
		keypoints.New(-1.9, 0, 0.7),
		keypoints.New(1.9, 0, 0.6),
	}

	assert.Equal(t, []float32{0, 0}, xs(ApplyRadiusNMS(kps, 2)))
	assert.Equal(t, []float32{0, -1.9, 1.9}, xs(ApplyRadiusNMS(kps, 3)))
}

func TestApplyRadiusNMSEmpty(t *testing.T) {
	got := ApplyRadiusNMS(nil, 4)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelectTopK(t *testing.T) {
	kps := []keypoints.Keypoint{
		keypoints.New(0, 0, 0.2),
		keypoints.New(1, 0, 0.9),
		keypoints.New(2, 0, 0.5),
		keypoints.New(3, 0, 0.9),
	}

	tests := []struct {
		name string
		max  *int
		want []float32
	}{
		{"nil passes through", nil, []float32{0, 1, 2, 3}},
		{"zero", intPtr(0), []float32{}},
		{"negative", intPtr(-2), []float32{}},
		{"two", intPtr(2), []float32{1, 3}},
		{"exact", intPtr(4), []float32{1, 3, 2, 0}},
		{"larger", intPtr(100), []float32{1, 3, 2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, xs(SelectTopK(kps, tt.max)))
		})
	}
}

func TestSelectTopKLaw(t *testing.T) {
	kps := randomKeypoints(3, 50)
	for k := 0; k <= 60; k += 7 {
		got := SelectTopK(kps, intPtr(k))
		assert.Len(t, got, min(k, len(kps)))
		assert.Equal(t, SortByScore(kps)[:len(got)], got)
	}
}

func TestRescale(t *testing.T) {
	scale := float32(2)
	kps := []keypoints.Keypoint{
		keypoints.New(1, 2, 0.9),
		keypoints.NewWithScaleAngle(8, 4, 0.3, scale, 0.5),
	}

	got := Rescale(kps, images.Size{Width: 640, Height: 240}, images.ModelSize{Height: 120, Width: 160}, 1)
	require.Len(t, got, 2)
	assert.Equal(t, keypoints.New(4, 4, 0.9), got[0])
	assert.True(t, keypoints.NewWithScaleAngle(32, 8, 0.3, scale, 0.5).Equal(got[1]))
	assert.Equal(t, float32(1), kps[0].X, "input must not be modified")
}

func TestRescaleIdentity(t *testing.T) {
	kps := randomKeypoints(11, 500)
	size := images.Size{Width: 20, Height: 20}

	got := Rescale(kps, size, images.ModelSize{Height: 20, Width: 20}, 4)
	assert.Equal(t, kps, got)
}

func TestRescaleParallelPreservesOrder(t *testing.T) {
	kps := randomKeypoints(5, 1000)
	original := images.Size{Width: 1280, Height: 720}
	model := images.ModelSize{Height: 240, Width: 320}

	want := Rescale(kps, original, model, 1)
	got := Rescale(kps, original, model, 8)
	assert.Equal(t, want, got)
}

func TestRescaleZeroModelDimension(t *testing.T) {
	kps := []keypoints.Keypoint{keypoints.New(3, 5, 1)}

	got := Rescale(kps, images.Size{Width: 100, Height: 100}, images.ModelSize{Height: 0, Width: 50}, 1)
	assert.Equal(t, keypoints.New(6, 5, 1), got[0])
}

func xs(kps []keypoints.Keypoint) []float32 {
	out := make([]float32, len(kps))
	for i, kp := range kps {
		out[i] = kp.X
	}
	return out
}

func BenchmarkApplyRadiusNMS(b *testing.B) {
	kps := randomKeypoints(1, 2000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ApplyRadiusNMS(kps, 4)
	}
}
