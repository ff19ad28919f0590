package imaging

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when Save is given a quality outside 1-100.
const DefaultJPEGQuality = 95

// OutputName returns the path Save writes for path: unchanged when the
// extension has an encoder (PNG, JPEG, GIF, TIFF, BMP), otherwise with the
// extension replaced by ".png".
func OutputName(path string) string {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
	return path
}

// Save encodes img to OutputName(path), creating parent directories as
// needed, and returns the path actually written.
//
// Every failure is returned as a *WriteError.
func Save(img image.Image, path string, jpegQuality int) (string, error) {
	path = OutputName(path)
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", &WriteError{Path: path, Err: err}
		}
	}

	if err := imaging.Save(img, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	return path, nil
}
