package workflow

import (
	"image"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-detect/internal/config"
	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/imaging"
)

// Loader decodes an image file. *imaging.ImageCache satisfies it.
type Loader interface {
	Load(path string) (image.Image, error)
}

type loaderFunc func(path string) (image.Image, error)

func (f loaderFunc) Load(path string) (image.Image, error) { return f(path) }

// Runner executes the workflow modes with one fixed configuration. It holds
// no per-request state and is safe for concurrent use.
type Runner struct {
	detector  detection.Detector
	style     imaging.BoxStyle
	selection detection.SelectionPolicy
	scale     float64
	baseDir   string
	subdir    string
	quality   int
	loader    Loader
	log       logrus.FieldLogger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLoader replaces the default uncached decoder.
func WithLoader(l Loader) Option {
	return func(r *Runner) { r.loader = l }
}

// WithDetector replaces the detector built from the configuration.
func WithDetector(d detection.Detector) Option {
	return func(r *Runner) { r.detector = d }
}

// NewRunner builds a Runner from cfg.
func NewRunner(cfg *config.Config, log logrus.FieldLogger, opts ...Option) (*Runner, error) {
	style, err := cfg.BoxStyle()
	if err != nil {
		return nil, err
	}
	selection, err := cfg.Selection()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		style:     style,
		selection: selection,
		scale:     cfg.Crop.Scale,
		baseDir:   cfg.Output.BaseDir,
		subdir:    cfg.Output.Subdir,
		quality:   cfg.Output.JPEGQuality,
		loader:    loaderFunc(imaging.Decode),
		log:       log,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.detector == nil {
		d, err := cfg.Detector()
		if err != nil {
			return nil, errors.Wrap(err, "create detector")
		}
		r.detector = d
	}
	if r.scale == 0 {
		r.scale = 1.0
	}
	if r.subdir == "" {
		r.subdir = config.DefaultOutputSubdir
	}
	return r, nil
}

// WithBaseDir returns a copy of the runner writing annotated images under dir.
func (r *Runner) WithBaseDir(dir string) *Runner {
	c := *r
	c.baseDir = dir
	return &c
}

// OutputPath returns where the annotated copy of input is written. Inputs
// whose format has no encoder are written as PNG.
func (r *Runner) OutputPath(input string) string {
	return imaging.OutputName(filepath.Join(r.baseDir, r.subdir, filepath.Base(input)))
}

// Detect decodes input and returns the detection result. An empty result is
// not an error here.
func (r *Runner) Detect(input string) (*detection.Result, error) {
	img, err := r.loader.Load(input)
	if err != nil {
		return nil, err
	}
	return r.detect(input, img)
}

func (r *Runner) detect(input string, img image.Image) (*detection.Result, error) {
	res, err := r.detector.Detect(img)
	if err != nil {
		return nil, errors.Wrapf(err, "detect %s", input)
	}
	r.log.WithFields(logrus.Fields{"input": input, "plates": res.Count()}).Debug("detection finished")
	return res, nil
}

// Annotated is the outcome of annotate-and-save.
type Annotated struct {
	Input  string            `json:"input"`
	Output string            `json:"output"`
	Result *detection.Result `json:"result"`
}

// AnnotateAndSave detects plates in input, outlines all of them on a copy and
// writes it under the output directory in the input's format. Nothing is
// written when no plate is found.
func (r *Runner) AnnotateAndSave(input string) (*Annotated, error) {
	img, err := r.loader.Load(input)
	if err != nil {
		return nil, err
	}
	res, err := r.detect(input, img)
	if err != nil {
		return nil, err
	}
	if !res.Found() {
		return nil, errors.Wrap(detection.ErrNoPlateDetected, input)
	}

	annotated := imaging.DrawBoxes(img, res.Rects(), r.style)
	out, err := imaging.Save(annotated, r.OutputPath(input), r.quality)
	if err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"input":  input,
		"plates": res.Count(),
		"output": out,
	}).Info("annotated image saved")

	return &Annotated{Input: input, Output: out, Result: res}, nil
}
