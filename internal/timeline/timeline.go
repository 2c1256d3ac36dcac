package timeline

import (
	"fmt"
	"math"
)

// Segment is a half-open [Start, End) interval in seconds along the narration.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Valid reports whether the segment satisfies 0 <= Start < End.
func (s Segment) Valid() bool {
	return s.Start >= 0 && s.End > s.Start && !math.IsInf(s.End, 1)
}

func (s Segment) String() string {
	return fmt.Sprintf("[%.3f, %.3f)", s.Start, s.End)
}

// KeywordBatch is the ordered set of visual search terms for one segment.
type KeywordBatch []string

// QueryEntry pairs a segment with the keywords describing its footage.
type QueryEntry struct {
	Segment  Segment      `json:"segment"`
	Keywords KeywordBatch `json:"keywords"`
}

// QueryTimeline is the ordered keyword timeline produced by the text service.
type QueryTimeline []QueryEntry

// End returns the end of the final segment, or 0 for an empty timeline.
func (t QueryTimeline) End() float64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Segment.End
}

// Segments returns the segment boundaries in order.
func (t QueryTimeline) Segments() []Segment {
	out := make([]Segment, len(t))
	for i, entry := range t {
		out[i] = entry.Segment
	}
	return out
}

// ResourceRef identifies a located background footage asset.
type ResourceRef struct {
	URL     string `json:"url"`
	Keyword string `json:"keyword,omitempty"`
}

// ResourceEntry pairs a segment with its footage. A nil Resource means no
// footage matched the segment's keywords.
type ResourceEntry struct {
	Segment  Segment      `json:"segment"`
	Resource *ResourceRef `json:"resource"`
}

// Resolved reports whether footage was found for the entry.
func (e ResourceEntry) Resolved() bool {
	return e.Resource != nil
}

func (e ResourceEntry) clone() ResourceEntry {
	if e.Resource == nil {
		return ResourceEntry{Segment: e.Segment}
	}
	ref := *e.Resource
	return ResourceEntry{Segment: e.Segment, Resource: &ref}
}

// ResourceTimeline is the footage timeline handed to the merger and renderer.
type ResourceTimeline []ResourceEntry

// End returns the end of the final segment, or 0 for an empty timeline.
func (t ResourceTimeline) End() float64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Segment.End
}

// Segments returns the segment boundaries in order.
func (t ResourceTimeline) Segments() []Segment {
	out := make([]Segment, len(t))
	for i, entry := range t {
		out[i] = entry.Segment
	}
	return out
}

// Unresolved counts entries without footage.
func (t ResourceTimeline) Unresolved() int {
	count := 0
	for _, entry := range t {
		if !entry.Resolved() {
			count++
		}
	}
	return count
}
