package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, err := Crop(img, image.Rect(0, 0, 50, 40), 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if cropped.Bounds() != image.Rect(0, 0, 50, 40) {
		t.Errorf("bounds: got %v, want 50x40 at origin", cropped.Bounds())
	}
}

func TestCrop_WithScale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name         string
		r            image.Rectangle
		scale        float64
		wantW, wantH int
	}{
		{"scale up 2x", image.Rect(0, 0, 50, 50), 2.0, 100, 100},
		{"scale down 0.5x", image.Rect(0, 0, 100, 100), 0.5, 50, 50},
		{"zero keeps size", image.Rect(10, 10, 30, 20), 0, 20, 10},
		{"tiny scale keeps one pixel", image.Rect(0, 0, 10, 10), 0.01, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cropped, err := Crop(img, tt.r, tt.scale)
			if err != nil {
				t.Fatalf("Crop failed: %v", err)
			}
			if cropped.Bounds().Dx() != tt.wantW || cropped.Bounds().Dy() != tt.wantH {
				t.Errorf("dimensions: got %v, want %dx%d", cropped.Bounds(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCrop_InvalidInput(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name  string
		r     image.Rectangle
		scale float64
	}{
		{"x1 negative", image.Rect(-1, 0, 50, 50), 1},
		{"y1 negative", image.Rect(0, -1, 50, 50), 1},
		{"x2 too large", image.Rect(0, 0, 101, 50), 1},
		{"y2 too large", image.Rect(0, 0, 50, 101), 1},
		{"zero width", image.Rect(50, 0, 50, 50), 1},
		{"zero area", image.Rect(50, 50, 50, 50), 1},
		{"negative scale", image.Rect(0, 0, 10, 10), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.r, tt.scale); err == nil {
				t.Error("Crop should fail")
			}
		})
	}
}

func TestCrop_OffsetBounds(t *testing.T) {
	// Regions are relative to the top-left corner even when the image's
	// bounds do not start at zero.
	img := image.NewNRGBA(image.Rect(100, 100, 120, 120))
	img.SetNRGBA(105, 105, color.NRGBA{255, 0, 0, 255})

	cropped, err := Crop(img, image.Rect(5, 5, 10, 10), 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if c := cropped.NRGBAAt(0, 0); c.R != 255 {
		t.Errorf("top-left of crop: got %v, want red", c)
	}
	if _, err := Crop(img, image.Rect(0, 0, 21, 20), 1.0); err == nil {
		t.Error("region beyond the image size should fail")
	}
}

func TestCropToPNG_VerifyContent(t *testing.T) {
	img := createPatternImage(100, 100)

	// Top-left quadrant is red
	result, err := CropToPNG(img, image.Rect(0, 0, 50, 50), 1.0)
	if err != nil {
		t.Fatalf("CropToPNG failed: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	croppedImg, err := png.Decode(bytes.NewReader(decoded))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}

	r, g, b, _ := croppedImg.At(25, 25).RGBA()
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
	if r8 != 255 || g8 != 0 || b8 != 0 {
		t.Errorf("cropped image color: got (%d,%d,%d), want (255,0,0)", r8, g8, b8)
	}
}

// createPatternImage creates quadrants: red top-left, green top-right, blue
// bottom-left, white bottom-right.
func createPatternImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}
