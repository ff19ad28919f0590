// Package config loads the YAML configuration of the plate detector.
//
// Every field is optional: a missing file section or key keeps the value from
// Default. The log level can additionally be overridden through the
// PLATE_DETECT_LOG_LEVEL environment variable.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/imaging"
)

// DefaultOutputSubdir is the directory, under Output.BaseDir, that annotated
// images are written to.
const DefaultOutputSubdir = "DETECTED_AND_CROPPED_FILES"

// EnvLogLevel overrides Log.Level when set.
const EnvLogLevel = "PLATE_DETECT_LOG_LEVEL"

type Config struct {
	Detection  DetectionConfig  `yaml:"detection"`
	Annotation AnnotationConfig `yaml:"annotation"`
	Output     OutputConfig     `yaml:"output"`
	Crop       CropConfig       `yaml:"crop"`
	Log        LogConfig        `yaml:"log"`
}

type DetectionConfig struct {
	Backend    string  `yaml:"backend"`
	BlurKernel int     `yaml:"blur_kernel"`
	CannyLow   float64 `yaml:"canny_low"`
	CannyHigh  float64 `yaml:"canny_high"`
	MinArea    float64 `yaml:"min_area"`
}

type AnnotationConfig struct {
	Color     string `yaml:"color"`
	Thickness int    `yaml:"thickness"`
	Labels    bool   `yaml:"labels"`
}

type OutputConfig struct {
	BaseDir     string `yaml:"base_dir"`
	Subdir      string `yaml:"subdir"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

type CropConfig struct {
	Selection string  `yaml:"selection"`
	Scale     float64 `yaml:"scale"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	p := detection.DefaultParams()
	return &Config{
		Detection: DetectionConfig{
			Backend:    detection.BackendNative,
			BlurKernel: p.BlurKernel,
			CannyLow:   p.CannyLow,
			CannyHigh:  p.CannyHigh,
			MinArea:    p.MinArea,
		},
		Annotation: AnnotationConfig{
			Color:     "#00FF00",
			Thickness: 2,
		},
		Output: OutputConfig{
			BaseDir:     ".",
			Subdir:      DefaultOutputSubdir,
			JPEGQuality: imaging.DefaultJPEGQuality,
		},
		Crop: CropConfig{
			Selection: string(detection.SelectLargest),
			Scale:     1.0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies the
// environment override and validates the result. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Log.Level = lvl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	switch strings.ToLower(c.Detection.Backend) {
	case "", detection.BackendNative, detection.BackendOpenCV:
	default:
		return errors.Errorf("unknown detection backend %q", c.Detection.Backend)
	}
	if _, err := c.BoxStyle(); err != nil {
		return err
	}
	if _, err := c.Selection(); err != nil {
		return err
	}
	if c.Crop.Scale < 0 {
		return errors.Errorf("crop scale must not be negative, got %g", c.Crop.Scale)
	}
	if c.Output.Subdir == "" || strings.ContainsAny(c.Output.Subdir, `/\`) {
		return errors.Errorf("output subdir must be a single directory name, got %q", c.Output.Subdir)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log level")
	}
	return nil
}

// Params converts the detection section into pipeline parameters.
func (c *Config) Params() detection.Params {
	return detection.Params{
		BlurKernel: c.Detection.BlurKernel,
		CannyLow:   c.Detection.CannyLow,
		CannyHigh:  c.Detection.CannyHigh,
		MinArea:    c.Detection.MinArea,
	}
}

// Detector builds the configured detection backend.
func (c *Config) Detector() (detection.Detector, error) {
	return detection.New(c.Detection.Backend, c.Params())
}

// BoxStyle converts the annotation section into a drawing style.
func (c *Config) BoxStyle() (imaging.BoxStyle, error) {
	col, err := imaging.ParseColor(c.Annotation.Color)
	if err != nil {
		return imaging.BoxStyle{}, errors.Wrap(err, "annotation color")
	}
	if c.Annotation.Thickness < 1 {
		return imaging.BoxStyle{}, errors.Errorf("annotation thickness must be at least 1, got %d", c.Annotation.Thickness)
	}
	return imaging.BoxStyle{Color: col, Thickness: c.Annotation.Thickness, Labels: c.Annotation.Labels}, nil
}

// Selection parses the crop selection policy.
func (c *Config) Selection() (detection.SelectionPolicy, error) {
	return detection.ParseSelectionPolicy(c.Crop.Selection)
}

// NewLogger returns a text logger writing to out at the configured level.
func (c *Config) NewLogger(out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
