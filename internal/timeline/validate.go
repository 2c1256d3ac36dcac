package timeline

import (
	"errors"
	"fmt"
	"math"
)

// ErrDiscontinuous marks a timeline with gaps, overlaps or misordered
// segments.
var ErrDiscontinuous = errors.New("timeline not contiguous")

// ValidateContiguous checks that segments are individually valid, that the
// first one starts at origin and that each segment starts where the previous
// one ended. Boundaries may differ by at most tolerance.
func ValidateContiguous(segments []Segment, origin, tolerance float64) error {
	if len(segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrDiscontinuous)
	}
	if !Near(segments[0].Start, origin, tolerance) {
		return fmt.Errorf("%w: first segment starts at %.3f, expected %.3f", ErrDiscontinuous, segments[0].Start, origin)
	}
	for i, seg := range segments {
		if !seg.Valid() {
			return fmt.Errorf("%w: segment %d %s is empty or negative", ErrDiscontinuous, i, seg)
		}
		if i == 0 {
			continue
		}
		prev := segments[i-1]
		switch {
		case seg.Start > prev.End+tolerance:
			return fmt.Errorf("%w: gap between segment %d %s and %d %s", ErrDiscontinuous, i-1, prev, i, seg)
		case seg.Start < prev.End-tolerance:
			return fmt.Errorf("%w: segment %d %s overlaps segment %d %s", ErrDiscontinuous, i, seg, i-1, prev)
		}
	}
	return nil
}

// Near reports whether a and b differ by at most tolerance.
func Near(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
