package detection

import "errors"

var (
	// ErrNoPlateDetected is returned when a plate is required but no contour
	// survived the area filter.
	ErrNoPlateDetected = errors.New("no plate detected")

	// ErrInvalidParams is wrapped by every parameter validation failure.
	ErrInvalidParams = errors.New("invalid detection parameters")
)
