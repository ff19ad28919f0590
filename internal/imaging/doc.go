// Package imaging provides the raster operations the plate detector is built
// on: decoding, grayscale conversion, Gaussian blur, Canny edge detection,
// box drawing, cropping and format-aware saving.
//
// # Coordinate System
//
// All pixel coordinates are 0-based and relative to the image's top-left
// corner, whatever the decoded image's Bounds().Min is:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Regions are image.Rectangle values with Min inclusive and Max exclusive
//
// # Edge Detection
//
// Canny works on 8-bit intensities. Gradients come from 3x3 Sobel kernels and
// their magnitude is the L1 norm |gx| + |gy|, so thresholds are directly
// comparable with the common 50/150 defaults. Pixels on the outermost
// one-pixel frame are never edges.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and never modifies its input image; drawing always happens on a
// clone.
//
// # Error Handling
//
// Input that cannot be opened or decoded is reported as *DecodeError and any
// failure while writing output as *WriteError. Both wrap their cause.
package imaging
