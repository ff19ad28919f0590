package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// BoxStyle controls how rectangles are drawn onto an annotated image.
type BoxStyle struct {
	// Color of the rectangle outline.
	Color color.NRGBA

	// Thickness of the outline in pixels. Values below 1 are treated as 1.
	Thickness int

	// Labels draws "#<n>" (1-based, in box order) above each rectangle.
	Labels bool
}

// DefaultBoxStyle is a 2-pixel green outline without labels.
func DefaultBoxStyle() BoxStyle {
	return BoxStyle{Color: color.NRGBA{R: 0, G: 255, B: 0, A: 255}, Thickness: 2}
}

// ParseColor parses a "#RRGGBB" or "#RGB" hex string into an opaque color.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawBoxes returns a copy of img with every rectangle outlined.
//
// Each rectangle is relative to the image's top-left corner. The outline runs
// through the corner points (Min.X, Min.Y) and (Max.X, Max.Y), so it sits on
// the pixel row/column just past the box's inclusive extent, and thickness
// grows outward before inward. Parts falling outside the image are clipped.
// The source image is never modified.
func DrawBoxes(img image.Image, rects []image.Rectangle, style BoxStyle) *image.NRGBA {
	out := imaging.Clone(img)

	t := style.Thickness
	if t < 1 {
		t = 1
	}
	lo := -(t / 2)
	hi := lo + t - 1

	for _, r := range rects {
		for o := lo; o <= hi; o++ {
			hLine(out, r.Min.X+lo, r.Max.X+hi, r.Min.Y+o, style.Color)
			hLine(out, r.Min.X+lo, r.Max.X+hi, r.Max.Y+o, style.Color)
			vLine(out, r.Min.Y+lo, r.Max.Y+hi, r.Min.X+o, style.Color)
			vLine(out, r.Min.Y+lo, r.Max.Y+hi, r.Max.X+o, style.Color)
		}
	}

	if style.Labels {
		for i, r := range rects {
			drawLabel(out, r, hi, "#"+strconv.Itoa(i+1), style.Color)
		}
	}

	return out
}

func hLine(img *image.NRGBA, x1, x2, y int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	for x := max(x1, b.Min.X); x <= x2 && x < b.Max.X; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func vLine(img *image.NRGBA, y1, y2, x int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	for y := max(y1, b.Min.Y); y <= y2 && y < b.Max.Y; y++ {
		img.SetNRGBA(x, y, c)
	}
}

// drawLabel writes text just above the rectangle's top outline, or just
// inside it when there is no room above.
func drawLabel(img *image.NRGBA, r image.Rectangle, outset int, text string, c color.NRGBA) {
	face := basicfont.Face7x13
	baseline := r.Min.Y - outset - 3
	if baseline-face.Ascent < img.Bounds().Min.Y {
		baseline = r.Min.Y + outset + face.Ascent + 2
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(r.Min.X, baseline),
	}
	d.DrawString(text)
}
