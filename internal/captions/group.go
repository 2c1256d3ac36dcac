package captions

import (
	"strings"

	"factreel/internal/timeline"
)

// Word is a single recognized word with its timing.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// GroupWords packs consecutive words into captions of at most maxChars
// characters. A word longer than maxChars gets a caption of its own. Words
// without usable timing ride along with the caption being built; a run of
// untimed words is never emitted as a caption of its own. Caption starts are
// clamped to the end of the text before them, and a word lying wholly inside
// earlier captions counts as untimed.
func GroupWords(words []Word, maxChars int) []Caption {
	if maxChars <= 0 {
		maxChars = 15
	}
	var (
		caps    []Caption
		current []string
		start   float64
		end     float64
		length  int
		timed   bool
		lastEnd float64
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, " ")
		if timed {
			caps = append(caps, Caption{
				Segment: timeline.Segment{Start: start, End: end},
				Text:    text,
			})
		} else {
			caps[len(caps)-1].Text += " " + text
		}
		current = current[:0]
		length = 0
		timed = false
	}
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		added := len(text)
		if len(current) > 0 {
			added++
		}
		// Untimed leading words wait for a timed word unless a previous
		// caption can absorb them.
		canFlush := timed || len(caps) > 0
		if len(current) > 0 && length+added > maxChars && canFlush {
			flush()
			added = len(text)
		}
		if len(current) == 0 {
			start, end = lastEnd, lastEnd
		}
		// Recognizers may report a word starting before the previous one
		// ended; captions never start before the text already shown.
		wordStart := max(w.Start, lastEnd)
		if w.End > wordStart {
			if !timed {
				start = wordStart
			}
			if w.End > end {
				end = w.End
			}
			timed = true
		}
		if end > lastEnd {
			lastEnd = end
		}
		current = append(current, text)
		length += added
	}
	if !timed && len(caps) == 0 {
		return nil
	}
	flush()
	return caps
}
