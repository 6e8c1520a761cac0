// Package preprocess - Preparing decoded images as SuperPoint model input.
package preprocess

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-superpoint/config"
	"github.com/nvr-ai/go-superpoint/images"
)

// Result contains the model input tensor and the geometry needed to map keypoints back.
type Result struct {
	// Tensor is the grayscale input shaped [1, 1, Height, Width].
	Tensor *tensor.Dense
	// OriginalSize is the size of the image before resizing.
	OriginalSize images.Size
	// ModelSize is the resolution the model sees. Keypoints decoded from this input come out
	// at the same resolution.
	ModelSize images.ModelSize
}

// Preprocessor converts images to the single channel float tensor SuperPoint expects.
type Preprocessor struct {
	config config.ImageConfig
}

// NewPreprocessor creates a new preprocessor with the given configuration.
//
// Arguments:
//   - cfg: Model input width, height and normalization.
//
// Returns:
//   - *Preprocessor: A configured preprocessor.
//   - error: If the dimensions are not positive multiples of the decoder cell size.
//
// @example
//
//	preprocessor, err := NewPreprocessor(config.Default().Image)
func NewPreprocessor(cfg config.ImageConfig) (*Preprocessor, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid model input dimensions: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width%config.CellSize != 0 || cfg.Height%config.CellSize != 0 {
		return nil, fmt.Errorf("model input %dx%d is not a multiple of %d", cfg.Width, cfg.Height, config.CellSize)
	}
	return &Preprocessor{config: cfg}, nil
}

// Preprocess resizes the image to the model resolution, converts it to grayscale and
// lays it out as a [1, 1, H, W] float32 tensor. Values are in [0, 1] when normalization is
// enabled and [0, 255] otherwise.
//
// Arguments:
//   - img: A decoded image of any size.
//
// Returns:
//   - *Result: The tensor with the original and model sizes.
//   - error: If the image is nil or empty.
func (p *Preprocessor) Preprocess(img image.Image) (*Result, error) {
	if err := validateInput(img); err != nil {
		return nil, errors.Wrap(err, "input validation failed")
	}

	bounds := img.Bounds()
	original := images.Size{Width: bounds.Dx(), Height: bounds.Dy()}

	if original.Width != p.config.Width || original.Height != p.config.Height {
		img = resize.Resize(uint(p.config.Width), uint(p.config.Height), img, resize.Lanczos3)
	}
	gray := imaging.Grayscale(img)

	return &Result{
		Tensor:       p.imageToTensor(gray),
		OriginalSize: original,
		ModelSize:    images.ModelSize{Height: p.config.Height, Width: p.config.Width},
	}, nil
}

// BatchPreprocess processes multiple images in parallel.
//
// Arguments:
//   - imgs: Images to preprocess.
//   - maxConcurrency: Maximum number of images processed at once, <= 0 means 1.
//
// Returns:
//   - []*Result: Results in input order.
//   - error: The first failure in input order.
func (p *Preprocessor) BatchPreprocess(imgs []image.Image, maxConcurrency int) ([]*Result, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	results := make([]*Result, len(imgs))
	errs := make([]error, len(imgs))

	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, img := range imgs {
		wg.Add(1)
		go func(idx int, img image.Image) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := p.Preprocess(img)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "failed to preprocess image %d", idx)
				return
			}
			results[idx] = result
		}(i, img)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

func validateInput(img image.Image) error {
	if img == nil {
		return errors.New("image is nil")
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return errors.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}
	return nil
}

// imageToTensor reads the luminance of a grayscale image into a [1, 1, H, W] tensor.
func (p *Preprocessor) imageToTensor(gray *image.NRGBA) *tensor.Dense {
	width, height := gray.Rect.Dx(), gray.Rect.Dy()
	data := make([]float32, width*height)

	scale := float32(1)
	if p.config.Normalize {
		scale = 1.0 / 255.0
	}

	for y := 0; y < height; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < width; x++ {
			// R, G and B are equal after grayscale conversion.
			data[y*width+x] = float32(row[x*4]) * scale
		}
	}

	return tensor.New(tensor.WithShape(1, 1, height, width), tensor.WithBacking(data))
}
