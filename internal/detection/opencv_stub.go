//go:build !gocv

package detection

import (
	"errors"
	"image"
)

// ErrOpenCVUnavailable is returned when the opencv backend is requested from
// a binary built without the gocv tag.
var ErrOpenCVUnavailable = errors.New("gocv build tag is not enabled")

// OpenCVDetector is a placeholder in builds without the gocv tag.
type OpenCVDetector struct{}

// NewOpenCVDetector always fails in builds without the gocv tag.
func NewOpenCVDetector(params Params) (*OpenCVDetector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return nil, ErrOpenCVUnavailable
}

// Detect always fails in builds without the gocv tag.
func (d *OpenCVDetector) Detect(image.Image) (*Result, error) {
	return nil, ErrOpenCVUnavailable
}
