//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// OpenCVDetector runs the pipeline through OpenCV: CvtColor, GaussianBlur
// (sigma inferred from kernel size), Canny, FindContours (external, simple
// chain approximation), ContourArea and BoundingRect.
type OpenCVDetector struct {
	params Params
}

// NewOpenCVDetector validates params and returns an OpenCV-backed detector.
func NewOpenCVDetector(params Params) (*OpenCVDetector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &OpenCVDetector{params: params}, nil
}

// Detect implements Detector.
func (d *OpenCVDetector) Detect(img image.Image) (*Result, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := d.params.BlurKernel
	gocv.GaussianBlur(gray, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, float32(d.params.CannyLow), float32(d.params.CannyHigh))

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	plates := make([]Plate, 0)
	for i := 0; i < contours.Size(); i++ {
		pv := contours.At(i)
		area := gocv.ContourArea(pv)
		if area <= d.params.MinArea {
			continue
		}

		r := gocv.BoundingRect(pv)
		pts := pv.ToPoints()
		contour := make(Contour, len(pts))
		for j, p := range pts {
			contour[j] = Point{X: p.X, Y: p.Y}
		}

		plates = append(plates, Plate{
			Index:   len(plates),
			Box:     Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()},
			Area:    area,
			Contour: contour,
		})
	}

	// FindContours lists contours roughly bottom-up; match the native order.
	rasterOrder(plates)

	return &Result{Width: mat.Cols(), Height: mat.Rows(), Plates: plates}, nil
}
