// Package captions models the timed caption track extracted from narration
// audio and converts it to and from SRT.
package captions

import (
	"fmt"
	"strconv"
	"strings"

	"factreel/internal/timeline"
)

// Caption is one timed line of narration text.
type Caption struct {
	Segment timeline.Segment `json:"segment"`
	Text    string           `json:"text"`
}

// TotalDuration returns the end of the final caption, which is the length of
// the narration the keyword timeline has to cover.
func TotalDuration(caps []Caption) float64 {
	if len(caps) == 0 {
		return 0
	}
	return caps[len(caps)-1].Segment.End
}

// Validate checks that captions are ordered, non-overlapping and non-empty.
func Validate(caps []Caption) error {
	if len(caps) == 0 {
		return fmt.Errorf("captions: empty caption timeline")
	}
	for i, c := range caps {
		if !c.Segment.Valid() {
			return fmt.Errorf("captions: caption %d has invalid segment %s", i, c.Segment)
		}
		if i > 0 && c.Segment.Start < caps[i-1].Segment.End {
			return fmt.Errorf("captions: caption %d %s overlaps previous %s", i, c.Segment, caps[i-1].Segment)
		}
	}
	return nil
}

// PromptLines renders captions one per line as ((start, end), 'text'), the
// form the keyword instruction refers to.
func PromptLines(caps []Caption) string {
	var b strings.Builder
	for _, c := range caps {
		b.WriteString("((")
		b.WriteString(formatSeconds(c.Segment.Start))
		b.WriteString(", ")
		b.WriteString(formatSeconds(c.Segment.End))
		b.WriteString("), '")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(c.Text), "'", "\\'"))
		b.WriteString("')\n")
	}
	return b.String()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
