package detection

import (
	"fmt"
	"strings"
)

// SelectionPolicy chooses one plate out of a Result, for cropping.
type SelectionPolicy string

const (
	// SelectLargest picks the plate with the largest contour area; ties go
	// to the earliest discovered.
	SelectLargest SelectionPolicy = "largest"

	// SelectFirst picks the first plate in discovery order.
	SelectFirst SelectionPolicy = "first"

	// SelectLast picks the last plate in discovery order.
	SelectLast SelectionPolicy = "last"
)

// ParseSelectionPolicy accepts "largest", "first" or "last" (case-insensitive).
// An empty string means SelectLargest.
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch p := SelectionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return SelectLargest, nil
	case SelectLargest, SelectFirst, SelectLast:
		return p, nil
	}
	return "", fmt.Errorf("unknown selection policy %q (want largest, first or last)", s)
}

// Select returns the plate chosen by policy, or ErrNoPlateDetected when the
// result is empty.
func (r *Result) Select(policy SelectionPolicy) (Plate, error) {
	if !r.Found() {
		return Plate{}, ErrNoPlateDetected
	}

	switch policy {
	case SelectFirst:
		return r.Plates[0], nil
	case SelectLast:
		return r.Plates[len(r.Plates)-1], nil
	case SelectLargest, "":
		best := r.Plates[0]
		for _, p := range r.Plates[1:] {
			if p.Area > best.Area {
				best = p
			}
		}
		return best, nil
	}
	return Plate{}, fmt.Errorf("unknown selection policy %q", policy)
}
