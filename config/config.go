// Package config - Pipeline configuration loaded from TOML files.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultImageWidth is the model input width SuperPoint is usually exported with.
	DefaultImageWidth = 320
	// DefaultImageHeight is the model input height SuperPoint is usually exported with.
	DefaultImageHeight = 240
	// DefaultThreshold is the default keypoint probability threshold.
	DefaultThreshold = 0.05
	// DefaultMaxKeypoints is the default top-K limit.
	DefaultMaxKeypoints = 1000
	// DefaultNMSRadius is the default suppression radius in grid pixels.
	DefaultNMSRadius = 4.0
	// CellSize is the side of the square pixel block each decoder cell covers.
	CellSize = 8
)

// Config is the full pipeline configuration.
type Config struct {
	Image    ImageConfig    `mapstructure:"image"`
	Keypoint KeypointConfig `mapstructure:"keypoint"`
}

// ImageConfig describes the model input the heatmap was produced from.
type ImageConfig struct {
	Width     int  `mapstructure:"width"`
	Height    int  `mapstructure:"height"`
	Normalize bool `mapstructure:"normalize"`
}

// KeypointConfig controls candidate extraction, suppression and selection. It is read-only
// for the duration of an extraction and may be shared between goroutines.
type KeypointConfig struct {
	// Threshold is the strict lower bound a probability must exceed to become a candidate.
	Threshold float64 `mapstructure:"threshold"`
	// MaxKeypoints limits the output to the top-K keypoints by score. Nil disables the limit.
	MaxKeypoints *int `mapstructure:"max_keypoints"`
	// NMSRadius is the suppression radius in grid pixels. Nil disables suppression.
	NMSRadius *float32 `mapstructure:"nms_radius"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	maxKeypoints := DefaultMaxKeypoints
	radius := float32(DefaultNMSRadius)
	return &Config{
		Image: ImageConfig{
			Width:     DefaultImageWidth,
			Height:    DefaultImageHeight,
			Normalize: true,
		},
		Keypoint: KeypointConfig{
			Threshold:    DefaultThreshold,
			MaxKeypoints: &maxKeypoints,
			NMSRadius:    &radius,
		},
	}
}

// Load reads a TOML configuration file.
//
// Missing image settings and threshold fall back to their defaults. The optional keypoint
// settings stay unset when the file omits them, which disables the matching stage.
//
// Arguments:
//   - path: Path to the TOML file.
//
// Returns:
//   - *Config: The validated configuration.
//   - error: If the file cannot be read, decoded or fails validation.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path as TOML. Unset optional settings are omitted.
func Save(cfg *Config, path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".toml" {
		return fmt.Errorf("config path must have a .toml extension, got %q", ext)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("image.width", cfg.Image.Width)
	v.Set("image.height", cfg.Image.Height)
	v.Set("image.normalize", cfg.Image.Normalize)
	v.Set("keypoint.threshold", cfg.Keypoint.Threshold)
	if cfg.Keypoint.MaxKeypoints != nil {
		v.Set("keypoint.max_keypoints", *cfg.Keypoint.MaxKeypoints)
	}
	if cfg.Keypoint.NMSRadius != nil {
		v.Set("keypoint.nms_radius", float64(*cfg.Keypoint.NMSRadius))
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Image.Width <= 0 || c.Image.Height <= 0 {
		return fmt.Errorf("image dimensions must be positive, got %dx%d", c.Image.Width, c.Image.Height)
	}
	if c.Image.Width%CellSize != 0 || c.Image.Height%CellSize != 0 {
		return fmt.Errorf(
			"image dimensions must be multiples of %d, got %dx%d",
			CellSize, c.Image.Width, c.Image.Height,
		)
	}
	return c.Keypoint.Validate()
}

// Validate checks the keypoint settings.
func (k KeypointConfig) Validate() error {
	if k.MaxKeypoints != nil && *k.MaxKeypoints < 0 {
		return fmt.Errorf("max_keypoints must not be negative, got %d", *k.MaxKeypoints)
	}
	if k.NMSRadius != nil && *k.NMSRadius < 0 {
		return fmt.Errorf("nms_radius must not be negative, got %f", *k.NMSRadius)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("image.width", DefaultImageWidth)
	v.SetDefault("image.height", DefaultImageHeight)
	v.SetDefault("image.normalize", true)
	v.SetDefault("keypoint.threshold", DefaultThreshold)
}
