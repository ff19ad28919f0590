package detection

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

// Backend names accepted by New.
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

// Params holds the tunable constants of the detection pipeline.
type Params struct {
	// BlurKernel is the odd side length of the Gaussian kernel.
	BlurKernel int `json:"blur_kernel"`

	// CannyLow and CannyHigh are the hysteresis thresholds, compared against
	// the L1 Sobel magnitude of 0-255 intensities.
	CannyLow  float64 `json:"canny_low"`
	CannyHigh float64 `json:"canny_high"`

	// MinArea is the contour area (px²) a candidate must strictly exceed.
	MinArea float64 `json:"min_area"`
}

// DefaultParams returns the empirically tuned defaults: 5x5 blur, Canny
// thresholds 50/150, minimum area 1000.
func DefaultParams() Params {
	return Params{
		BlurKernel: 5,
		CannyLow:   50,
		CannyHigh:  150,
		MinArea:    1000,
	}
}

// Validate reports parameter combinations the pipeline cannot run with.
func (p Params) Validate() error {
	switch {
	case p.BlurKernel < 1 || p.BlurKernel%2 == 0:
		return fmt.Errorf("%w: blur kernel must be odd and positive, got %d", ErrInvalidParams, p.BlurKernel)
	case p.CannyLow < 0 || p.CannyHigh < 0:
		return fmt.Errorf("%w: canny thresholds must not be negative", ErrInvalidParams)
	case p.CannyLow > p.CannyHigh:
		return fmt.Errorf("%w: canny low threshold %g exceeds high threshold %g", ErrInvalidParams, p.CannyLow, p.CannyHigh)
	case p.MinArea < 0:
		return fmt.Errorf("%w: minimum area must not be negative", ErrInvalidParams)
	}
	return nil
}

// Plate is one candidate region: a contour that survived the area filter.
type Plate struct {
	// Index is the contour's position in discovery order among survivors.
	Index int `json:"index"`

	// Box is the contour's bounding box.
	Box Box `json:"box"`

	// Area is the area enclosed by the contour (not the box).
	Area float64 `json:"area"`

	// Contour is the compressed boundary the box was computed from.
	Contour Contour `json:"-"`
}

// Result holds every candidate found in one image. A Result with no plates
// is a valid outcome, not an error.
type Result struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Plates []Plate `json:"plates"`
}

// Found reports whether at least one plate survived.
func (r *Result) Found() bool {
	return len(r.Plates) > 0
}

// Count returns the number of plates.
func (r *Result) Count() int {
	return len(r.Plates)
}

// Boxes returns every plate's box in discovery order.
func (r *Result) Boxes() []Box {
	boxes := make([]Box, len(r.Plates))
	for i, p := range r.Plates {
		boxes[i] = p.Box
	}
	return boxes
}

// Rects returns every plate's box as an image.Rectangle.
func (r *Result) Rects() []image.Rectangle {
	rects := make([]image.Rectangle, len(r.Plates))
	for i, p := range r.Plates {
		rects[i] = p.Box.Rect()
	}
	return rects
}

// Detector finds plate candidates in an image. Implementations are stateless
// and safe for concurrent use.
type Detector interface {
	Detect(img image.Image) (*Result, error)
}

// New returns a Detector for the named backend ("native" or "opencv"; empty
// means native).
func New(backend string, params Params) (Detector, error) {
	switch strings.ToLower(backend) {
	case "", BackendNative:
		d, err := NewNativeDetector(params)
		if err != nil {
			return nil, err
		}
		return d, nil
	case BackendOpenCV:
		d, err := NewOpenCVDetector(params)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown detection backend %q", backend)
	}
}

// NativeDetector implements the pipeline in pure Go.
type NativeDetector struct {
	params Params
}

// NewNativeDetector validates params and returns a detector using them.
func NewNativeDetector(params Params) (*NativeDetector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &NativeDetector{params: params}, nil
}

// Params returns the detector's parameters.
func (d *NativeDetector) Params() Params {
	return d.params
}

// Detect runs grayscale → blur → Canny → external contours → area filter →
// bounding boxes on img. Box coordinates are relative to the image's
// top-left corner. Survivors keep contour discovery order; overlapping and
// nested boxes are all returned.
func (d *NativeDetector) Detect(img image.Image) (*Result, error) {
	edges, err := imaging.EdgeMapOf(img, d.params.BlurKernel, d.params.CannyLow, d.params.CannyHigh)
	if err != nil {
		return nil, err
	}

	plates := make([]Plate, 0)
	for _, c := range FindExternalContours(edges) {
		area := c.Area()
		if area <= d.params.MinArea {
			continue
		}
		plates = append(plates, Plate{
			Index:   len(plates),
			Box:     c.BoundingBox(),
			Area:    area,
			Contour: c,
		})
	}

	bounds := img.Bounds()
	return &Result{Width: bounds.Dx(), Height: bounds.Dy(), Plates: plates}, nil
}

// rasterOrder sorts plates by the position of their contour's starting point,
// top to bottom then left to right, and renumbers Index to match. Border
// following starts every contour at its first pixel in raster order, so this
// is the order NativeDetector discovers them in.
func rasterOrder(plates []Plate) {
	sort.SliceStable(plates, func(i, j int) bool {
		a, b := start(plates[i]), start(plates[j])
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	for i := range plates {
		plates[i].Index = i
	}
}

func start(p Plate) Point {
	if len(p.Contour) == 0 {
		return Point{X: p.Box.X, Y: p.Box.Y}
	}
	return p.Contour[0]
}
