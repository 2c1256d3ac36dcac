package timeline

import "slices"

// Snap returns a copy of t whose first segment starts at origin and whose
// later segments each start where the previous one ends. Ends and keywords
// are kept, so small gaps and overlaps the text service leaves between
// boundaries are closed. A segment whose end falls at or before its snapped
// start comes out invalid; callers validate the result.
func Snap(t QueryTimeline, origin float64) QueryTimeline {
	out := make(QueryTimeline, len(t))
	start := origin
	for i, entry := range t {
		out[i] = QueryEntry{
			Segment:  Segment{Start: start, End: entry.Segment.End},
			Keywords: slices.Clone(entry.Keywords),
		}
		start = entry.Segment.End
	}
	return out
}
