package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// EdgeMap is a binary image marking pixels identified as intensity
// discontinuities. Coordinates are 0-based relative to the source image's
// top-left corner.
type EdgeMap struct {
	Width  int
	Height int

	// Pix holds Width*Height flags in row-major order.
	Pix []bool
}

// NewEdgeMap returns an empty edge map of the given size.
func NewEdgeMap(width, height int) *EdgeMap {
	return &EdgeMap{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is an edge pixel. Points outside the map are not.
func (m *EdgeMap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks or clears (x, y). Points outside the map are ignored.
func (m *EdgeMap) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of edge pixels.
func (m *EdgeMap) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Image renders the map as a grayscale image: edges 255, background 0.
func (m *EdgeMap) Image() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v {
			out.Pix[(i/m.Width)*out.Stride+i%m.Width] = 255
		}
	}
	return out
}

// Grayscale converts img to a single-channel image using ITU-R BT.601 luma
// weights (0.299*R + 0.587*G + 0.114*B). The result's origin is (0, 0).
func Grayscale(img image.Image) *image.Gray {
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return gray
}

// GaussianBlur smooths gray with a ksize x ksize Gaussian kernel. The standard
// deviation is inferred from the kernel size; ksize must be odd and positive.
// Border pixels are handled by clamping to the nearest edge pixel.
func GaussianBlur(gray *image.Gray, ksize int) (*image.Gray, error) {
	if ksize < 1 || ksize%2 == 0 {
		return nil, fmt.Errorf("blur kernel size must be odd and positive, got %d", ksize)
	}
	if ksize == 1 {
		out := image.NewGray(gray.Bounds())
		copy(out.Pix, gray.Pix)
		return out, nil
	}

	w := gaussianWeights(ksize)
	kernel := convolution.NewKernel(ksize, ksize)
	for y := 0; y < ksize; y++ {
		for x := 0; x < ksize; x++ {
			kernel.Matrix[y*ksize+x] = w[x] * w[y]
		}
	}

	blurred := convolution.Convolve(gray, kernel, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: false})

	b := blurred.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = blurred.Pix[y*blurred.Stride+x*4]
		}
	}
	return out, nil
}

// gaussianWeights returns a normalized 1-D Gaussian kernel of length ksize.
//
// Small kernels use the fixed binomial tables that common computer-vision
// libraries use when sigma is left for them to infer; larger ones derive
// sigma = 0.3*((ksize-1)*0.5-1)+0.8.
func gaussianWeights(ksize int) []float64 {
	switch ksize {
	case 3:
		return []float64{0.25, 0.5, 0.25}
	case 5:
		return []float64{0.0625, 0.25, 0.375, 0.25, 0.0625}
	case 7:
		return []float64{0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125}
	}

	sigma := 0.3*(float64(ksize-1)*0.5-1) + 0.8
	w := make([]float64, ksize)
	var sum float64
	r := ksize / 2
	for i := range w {
		d := float64(i - r)
		w[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

const (
	tan22_5 = 0.41421356237
	tan67_5 = 2.41421356237
)

// Canny performs Canny edge detection on an 8-bit grayscale image.
//
// Gradients come from 3x3 Sobel operators on 0-255 intensities and the
// magnitude is the L1 norm |Gx| + |Gy|. Thresholds are compared against that
// magnitude directly:
//
//  1. Non-maximum suppression keeps a pixel only if its magnitude exceeds
//     low and it is a local maximum across the gradient direction
//     (horizontal, vertical or one of the two diagonals).
//  2. Pixels above high are strong edges.
//  3. Hysteresis: remaining candidates are kept only when 8-connected,
//     directly or through other candidates, to a strong edge.
//
// Pixels on the image border are never edges.
func Canny(gray *image.Gray, low, high float64) *EdgeMap {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	edges := NewEdgeMap(width, height)
	if width < 3 || height < 3 {
		return edges
	}

	at := func(x, y int) int {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return int(gray.Pix[y*gray.Stride+x])
	}

	gradX := make([]int, width*height)
	gradY := make([]int, width*height)
	magnitude := make([]int, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			i := y*width + x
			gradX[i] = gx
			gradY[i] = gy
			magnitude[i] = abs(gx) + abs(gy)
		}
	}

	const (
		none = iota
		weak
		strong
	)
	state := make([]uint8, width*height)
	stack := make([]int, 0, 1024)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			m := magnitude[i]
			if float64(m) <= low {
				continue
			}

			ax := float64(abs(gradX[i]))
			ay := float64(abs(gradY[i]))

			var isMax bool
			switch {
			case ay < ax*tan22_5:
				isMax = m > magnitude[i-1] && m >= magnitude[i+1]
			case ay > ax*tan67_5:
				isMax = m > magnitude[i-width] && m >= magnitude[i+width]
			default:
				s := 1
				if (gradX[i] < 0) != (gradY[i] < 0) {
					s = -1
				}
				isMax = m > magnitude[i-width-s] && m > magnitude[i+width+s]
			}
			if !isMax {
				continue
			}

			if float64(m) > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	// Edge tracking by hysteresis
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		edges.Pix[i] = true

		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				n := ny*width + nx
				if state[n] == weak {
					state[n] = strong
					stack = append(stack, n)
				}
			}
		}
	}

	return edges
}

// EdgeDetectResult contains an edge map encoded as base64 PNG.
//
// White pixels (255) represent detected edges and black pixels (0) represent
// non-edges.
type EdgeDetectResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	EdgePixels  int    `json:"edge_pixels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EdgeMapOf runs the grayscale → blur → Canny stages on img and returns the
// resulting edge map.
func EdgeMapOf(img image.Image, blurKernel int, thresholdLow, thresholdHigh float64) (*EdgeMap, error) {
	blurred, err := GaussianBlur(Grayscale(img), blurKernel)
	if err != nil {
		return nil, err
	}
	return Canny(blurred, thresholdLow, thresholdHigh), nil
}

// EdgeDetect computes the edge map of img and returns it as a base64 PNG.
// It is a tuning aid for picking thresholds.
func EdgeDetect(img image.Image, blurKernel int, thresholdLow, thresholdHigh float64) (*EdgeDetectResult, error) {
	edges, err := EdgeMapOf(img, blurKernel, thresholdLow, thresholdHigh)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, edges.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeDetectResult{
		Width:       edges.Width,
		Height:      edges.Height,
		EdgePixels:  edges.Count(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
