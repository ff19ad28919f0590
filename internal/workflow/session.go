package workflow

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/imaging"
)

// Session carries one input through the crop mode. It replaces any ambient
// "current file" state: callers hold it and pass it back to the Runner.
type Session struct {
	// InputPath is the file the session was opened from.
	InputPath string

	// Image is the decoded original. It is never modified.
	Image image.Image

	// Result is set by Process.
	Result *detection.Result

	// Annotated is the original with every plate outlined, set by Process.
	Annotated *image.NRGBA

	// Selected is the plate chosen by the last Crop call.
	Selected *detection.Plate
}

// Open decodes path into a new session.
func (r *Runner) Open(path string) (*Session, error) {
	img, err := r.loader.Load(path)
	if err != nil {
		return nil, err
	}
	return &Session{InputPath: path, Image: img}, nil
}

// Process detects plates and renders the annotated preview. It fails with
// detection.ErrNoPlateDetected when nothing survives the area filter; the
// session then keeps the empty result and no preview.
func (r *Runner) Process(s *Session) error {
	res, err := r.detect(s.InputPath, s.Image)
	if err != nil {
		return err
	}
	s.Result = res
	s.Annotated = nil
	s.Selected = nil

	if !res.Found() {
		return errors.Wrap(detection.ErrNoPlateDetected, s.InputPath)
	}
	s.Annotated = imaging.DrawBoxes(s.Image, res.Rects(), r.style)
	return nil
}

// Crop selects one plate with the runner's policy and cuts it out of the
// original image, scaled by the runner's crop scale.
func (r *Runner) Crop(s *Session) (*image.NRGBA, error) {
	return r.CropWith(s, r.selection, r.scale)
}

// CropWith is Crop with an explicit policy and scale (0 means 1).
func (r *Runner) CropWith(s *Session, policy detection.SelectionPolicy, scale float64) (*image.NRGBA, error) {
	if s.Result == nil {
		if err := r.Process(s); err != nil {
			return nil, err
		}
	}

	plate, err := s.Result.Select(policy)
	if err != nil {
		return nil, errors.Wrap(err, s.InputPath)
	}
	if scale == 0 {
		scale = 1.0
	}

	cropped, err := imaging.Crop(s.Image, plate.Box.Rect(), scale)
	if err != nil {
		return nil, errors.Wrapf(err, "crop %s", s.InputPath)
	}
	s.Selected = &plate
	return cropped, nil
}

// SaveCrop writes a cropped plate to a caller-chosen path. Paths without a
// known image extension are written as PNG.
func (r *Runner) SaveCrop(s *Session, cropped image.Image, path string) (string, error) {
	out, err := imaging.Save(cropped, path, r.quality)
	if err != nil {
		return "", err
	}
	r.log.WithFields(logrus.Fields{"input": s.InputPath, "output": out}).Info("cropped plate saved")
	return out, nil
}
