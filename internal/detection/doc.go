// Package detection finds candidate license-plate regions in an image.
//
// # Algorithm Overview
//
// The native pipeline is a fixed sequence with no learned model:
//
//  1. Grayscale conversion (BT.601 luma)
//  2. Gaussian blur with an odd square kernel (5x5 by default)
//  3. Canny edge detection with hysteresis thresholds (50/150 by default)
//  4. External contour extraction: only the outermost boundary of each
//     connected edge region, compressed to its corner points
//  5. Area filter: contours enclosing MinArea px² or less are dropped
//  6. Axis-aligned bounding box of every survivor
//
// Survivors keep contour discovery order, which is raster order of each
// contour's first pixel. Overlapping boxes are not merged.
//
// # Backends
//
// New selects the pure-Go NativeDetector or, when built with the gocv tag,
// an OpenCVDetector that runs the same sequence through OpenCV. Both return
// the same Result type with plates in the same raster discovery order, so
// SelectFirst, SelectLast and Plate.Index mean the same for either backend.
//
// # Coordinate System
//
// Boxes use the image convention: origin at the top-left corner, X rightward,
// Y downward. Box.Width and Box.Height count pixels inclusively, so a box
// always lies within the image.
//
// # Errors
//
// A Result with no plates is a normal outcome. Callers that need a plate use
// Result.Select, which returns ErrNoPlateDetected for an empty result.
package detection
