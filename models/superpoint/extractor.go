package superpoint

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-superpoint/config"
	"github.com/nvr-ai/go-superpoint/images"
	"github.com/nvr-ai/go-superpoint/keypoints"
	"github.com/nvr-ai/go-superpoint/models/postprocess"
)

// Extractor runs the full decoding pipeline: grid decoding, candidate extraction, radius
// suppression, top-K selection and, on request, rescaling.
//
// An Extractor only reads its configuration, so a single instance may serve any number of
// goroutines.
type Extractor struct {
	config  config.KeypointConfig
	decoder Decoder
	logger  *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger stage timings are written to at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWorkers sets the goroutine count used for decoding and rescaling. Values <= 0 use
// one goroutine per CPU.
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		e.decoder.Workers = n
	}
}

// NewExtractor creates an extractor for the given keypoint settings.
//
// Arguments:
//   - cfg: Threshold, top-K and suppression settings. Copied.
//   - opts: Optional logger and worker settings.
//
// Returns:
//   - *Extractor: Ready to use. Decodes on the calling goroutine unless WithWorkers is set.
//
// @example
//
//	extractor := NewExtractor(config.Default().Keypoint, WithLogger(logger))
//	kps, err := extractor.Extract(semi)
func NewExtractor(cfg config.KeypointConfig, opts ...Option) *Extractor {
	e := &Extractor{
		config:  cfg,
		decoder: Decoder{Workers: 1},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the keypoint settings the extractor was built with.
func (e *Extractor) Config() config.KeypointConfig {
	return e.config
}

// Extract decodes a raw detector tensor and returns the selected keypoints in grid
// coordinates.
//
// Arguments:
//   - t: Detector logits shaped [65, Hc, Wc] or [1, 65, Hc, Wc].
//
// Returns:
//   - []keypoints.Keypoint: Sorted by descending score when suppression or top-K is
//     enabled, in row-major scan order otherwise.
//   - error: Wraps *ShapeError or *ScoreConversionError, use errors.As to inspect.
func (e *Extractor) Extract(t tensor.Tensor) ([]keypoints.Keypoint, error) {
	start := time.Now()
	grid, err := e.decoder.Decode(t)
	if err != nil {
		return nil, errors.Wrap(err, "decoding heatmap")
	}
	e.logger.Debug("decoded heatmap",
		zap.Stringer("grid", grid),
		zap.Duration("elapsed", time.Since(start)),
	)

	return e.ExtractHeatmap(grid), nil
}

// Decode expands a raw detector tensor with the extractor's worker setting.
func (e *Extractor) Decode(t tensor.Tensor) (*images.ProbabilityGrid, error) {
	return e.decoder.Decode(t)
}

// ExtractHeatmap runs the pipeline on an already decoded probability grid.
func (e *Extractor) ExtractHeatmap(grid *images.ProbabilityGrid) []keypoints.Keypoint {
	start := time.Now()
	kps := postprocess.ExtractCandidates(grid, e.config.Threshold)
	e.logger.Debug("extracted candidates",
		zap.Int("count", len(kps)),
		zap.Float64("threshold", e.config.Threshold),
		zap.Duration("elapsed", time.Since(start)),
	)

	if e.config.NMSRadius != nil {
		start = time.Now()
		kps = postprocess.ApplyRadiusNMS(kps, *e.config.NMSRadius)
		e.logger.Debug("applied radius nms",
			zap.Int("count", len(kps)),
			zap.Float32("radius", *e.config.NMSRadius),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	if e.config.MaxKeypoints != nil {
		kps = postprocess.SelectTopK(kps, e.config.MaxKeypoints)
		e.logger.Debug("selected top keypoints",
			zap.Int("count", len(kps)),
			zap.Int("max", *e.config.MaxKeypoints),
		)
	}

	return kps
}

// Rescale maps keypoints from the model grid into the original image resolution. See
// postprocess.Rescale.
func (e *Extractor) Rescale(kps []keypoints.Keypoint, original images.Size, model images.ModelSize) []keypoints.Keypoint {
	return postprocess.Rescale(kps, original, model, e.decoder.Workers)
}
