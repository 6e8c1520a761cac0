package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-superpoint/config"
	"github.com/nvr-ai/go-superpoint/images"
	"github.com/nvr-ai/go-superpoint/keypoints"
	"github.com/nvr-ai/go-superpoint/models/model"
	"github.com/nvr-ai/go-superpoint/models/superpoint"
	"github.com/nvr-ai/go-superpoint/util"
)

// FrameResult is the JSON record written for each decoded tensor.
type FrameResult struct {
	Path      string               `json:"path"`
	Frame     int                  `json:"frame"`
	ModelSize images.ModelSize     `json:"model_size"`
	Size      images.Size          `json:"size"`
	Keypoints []keypoints.Keypoint `json:"keypoints"`
}

func main() {
	var (
		configPath string
		tensorPath string
		tensorDir  string
		resolution string
		mode       string
		width      int
		height     int
		workers    int
		frames     int
	)
	flag.StringVar(&configPath, "config", "", "Path to a TOML configuration file (defaults are used when empty)")
	flag.StringVar(&tensorPath, "tensor", "", "Path to a raw detector output saved as .npy")
	flag.StringVar(&tensorDir, "tensor-dir", "", "Directory of frame-<n>.npy detector outputs")
	flag.StringVar(&resolution, "resolution", "", fmt.Sprintf("Named target resolution, one of %v (overrides -width and -height)", images.ResolutionNames()))
	flag.StringVar(&mode, "mode", "debug", "Logger mode: debug or release")
	flag.IntVar(&width, "width", 0, "Original image width keypoints are rescaled to (0 keeps model coordinates)")
	flag.IntVar(&height, "height", 0, "Original image height keypoints are rescaled to (0 keeps model coordinates)")
	flag.IntVar(&workers, "workers", 1, "Goroutines used to decode a single tensor")
	flag.IntVar(&frames, "frames", runtime.NumCPU(), "Tensors decoded concurrently")
	flag.Parse()

	logger, err := util.NewLogger(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if (tensorPath == "") == (tensorDir == "") {
		logger.Fatal("exactly one of -tensor or -tensor-dir is required")
	}

	size := images.Size{Width: width, Height: height}
	if resolution != "" {
		res, ok := images.LookupResolution(resolution)
		if !ok {
			logger.Fatal("unknown resolution", zap.String("resolution", resolution), zap.Strings("known", images.ResolutionNames()))
		}
		size = res.Size
	}

	cfg := config.Default()
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			logger.Fatal("failed to load config", zap.String("path", configPath), zap.Error(err))
		}
	}

	files, err := loadTensors(tensorPath, tensorDir)
	if err != nil {
		logger.Fatal("failed to load tensors", zap.Error(err))
	}
	logger.Info("loaded tensors", zap.Int("count", len(files)))

	extractor := superpoint.NewExtractor(cfg.Keypoint,
		superpoint.WithLogger(logger),
		superpoint.WithWorkers(workers),
	)
	descriptor := model.SuperPoint(cfg.Image)

	results, err := run(context.Background(), extractor, descriptor, files, size, frames, logger)
	if err != nil {
		logger.Fatal("extraction failed", zap.Error(err))
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		logger.Fatal("failed to write results", zap.Error(err))
	}
}

func loadTensors(path, dir string) ([]util.TensorFile, error) {
	if dir != "" {
		return util.LoadDirectoryTensors(dir)
	}
	t, err := util.LoadTensor(path)
	if err != nil {
		return nil, err
	}
	return []util.TensorFile{{Path: path, Tensor: t}}, nil
}

// run extracts keypoints from every tensor with at most limit tensors in flight. The
// extractor is shared, each frame writes only its own result slot.
func run(
	ctx context.Context,
	extractor *superpoint.Extractor,
	descriptor model.Config,
	files []util.TensorFile,
	size images.Size,
	limit int,
	logger *zap.Logger,
) ([]FrameResult, error) {
	results := make([]FrameResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := descriptor.CheckHeatmap(file.Tensor.Shape()); err != nil {
				logger.Warn("heatmap does not match configured model input",
					zap.String("path", file.Path),
					zap.Error(err),
				)
			}

			grid, err := extractor.Decode(file.Tensor)
			if err != nil {
				return fmt.Errorf("%s: %w", file.Path, err)
			}
			kps := extractor.ExtractHeatmap(grid)

			modelSize := images.ModelSizeOf(grid)
			target := size
			if target.Width <= 0 || target.Height <= 0 {
				target = images.Size{Width: modelSize.Width, Height: modelSize.Height}
			}

			results[i] = FrameResult{
				Path:      file.Path,
				Frame:     file.Frame,
				ModelSize: modelSize,
				Size:      target,
				Keypoints: extractor.Rescale(kps, target, modelSize),
			}
			logger.Debug("processed frame",
				zap.String("path", file.Path),
				zap.Int("keypoints", len(kps)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
