// Package model - The tensor contract of an exported SuperPoint model.
package model

import (
	"fmt"

	"github.com/nvr-ai/go-superpoint/config"
	"github.com/nvr-ai/go-superpoint/images"
)

// Name is the unique identifier of a model.
type Name string

// ModelNameSuperPoint is the name of the SuperPoint detector.
const ModelNameSuperPoint Name = "superpoint"

const (
	// InputImage is the name of the grayscale image input.
	InputImage = "image"
	// OutputSemi is the name of the detector head output decoded into keypoints.
	OutputSemi = "semi"
	// OutputDesc is the name of the descriptor head output.
	OutputDesc = "desc"
)

// Config describes the inputs and outputs a model export is expected to have.
type Config struct {
	Name    Name     `json:"name" yaml:"name"`
	Inputs  []string `json:"inputs" yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
	// Size is the model input resolution.
	Size images.ModelSize `json:"size" yaml:"size"`
}

// SuperPoint returns the contract of a SuperPoint export at the configured resolution.
func SuperPoint(cfg config.ImageConfig) Config {
	return Config{
		Name:    ModelNameSuperPoint,
		Inputs:  []string{InputImage},
		Outputs: []string{OutputSemi, OutputDesc},
		Size:    images.ModelSize{Height: cfg.Height, Width: cfg.Width},
	}
}

// InputShape returns the expected input tensor shape, [1, 1, H, W].
func (c Config) InputShape() []int {
	return []int{1, 1, c.Size.Height, c.Size.Width}
}

// HeatmapShape returns the expected detector output shape, [1, 65, H/8, W/8].
func (c Config) HeatmapShape() []int {
	return []int{1, config.CellSize*config.CellSize + 1, c.Size.Height / config.CellSize, c.Size.Width / config.CellSize}
}

// CheckHeatmap reports whether a detector output was produced at this resolution. Both the
// batched and unbatched layouts are accepted.
func (c Config) CheckHeatmap(shape []int) error {
	want := c.HeatmapShape()
	if len(shape) == 3 {
		shape = append([]int{1}, shape...)
	}
	if len(shape) != len(want) {
		return fmt.Errorf("heatmap shape %v, expected %v", shape, want)
	}
	for i := range want {
		if shape[i] != want[i] {
			return fmt.Errorf("heatmap shape %v, expected %v", shape, want)
		}
	}
	return nil
}
