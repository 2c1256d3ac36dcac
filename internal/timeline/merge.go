package timeline

import "fmt"

// mergeTolerance absorbs float noise in boundaries that were echoed through
// JSON; anything larger is a real gap.
const mergeTolerance = 1e-9

// Merge compacts a resource timeline: every run of unresolved entries that
// directly follows a resolved entry is absorbed into that entry's span, so the
// renderer keeps showing the same footage instead of cutting to a fallback.
// A run with no resolved predecessor (for example at the very start) is kept
// as a single unresolved entry covering the whole run.
//
// The input must be ordered and contiguous; anything else is rejected. The
// result covers exactly the same interval, never drops or splits a resolved
// entry, and Merge(Merge(t)) equals Merge(t). The input is not modified.
func Merge(in ResourceTimeline) (ResourceTimeline, error) {
	if len(in) == 0 {
		return ResourceTimeline{}, nil
	}
	if err := ValidateContiguous(in.Segments(), in[0].Segment.Start, mergeTolerance); err != nil {
		return nil, fmt.Errorf("merge resource timeline: %w", err)
	}
	merged := make(ResourceTimeline, 0, len(in))
	for _, entry := range in {
		merged = mergeStep(merged, entry)
	}
	return merged, nil
}

// mergeStep folds one entry into the accumulated timeline. Resolved entries
// are appended as-is; an unresolved entry extends whatever entry it directly
// continues, which is either the resolved span absorbing the gap or the
// unresolved run it belongs to.
func mergeStep(acc ResourceTimeline, entry ResourceEntry) ResourceTimeline {
	if entry.Resolved() || len(acc) == 0 {
		return append(acc, entry.clone())
	}
	last := acc[len(acc)-1]
	if !Near(last.Segment.End, entry.Segment.Start, mergeTolerance) {
		return append(acc, entry.clone())
	}
	extended := last.clone()
	extended.Segment.End = entry.Segment.End
	return append(acc[:len(acc)-1], extended)
}
