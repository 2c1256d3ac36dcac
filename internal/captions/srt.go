package captions

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"factreel/internal/timeline"
)

// WriteSRT writes captions as numbered SRT cues.
func WriteSRT(w io.Writer, caps []Caption) error {
	bw := bufio.NewWriter(w)
	for i, c := range caps {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatTimestamp(c.Segment.Start),
			FormatTimestamp(c.Segment.End),
			strings.TrimSpace(c.Text),
		); err != nil {
			return fmt.Errorf("write srt cue %d: %w", i+1, err)
		}
	}
	return bw.Flush()
}

// ParseSRT reads SRT cues. Cue numbers are ignored; multi-line cue text is
// joined with a space.
func ParseSRT(r io.Reader) ([]Caption, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")

	var caps []Caption
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
			continue
		}
		idx := 0
		if !strings.Contains(lines[0], "-->") {
			idx = 1
		}
		if idx >= len(lines) {
			continue
		}
		parts := strings.Split(lines[idx], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("parse srt: invalid timing line %q", lines[idx])
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("parse srt: %w", err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("parse srt: %w", err)
		}
		text := strings.Join(trimAll(lines[idx+1:]), " ")
		caps = append(caps, Caption{
			Segment: timeline.Segment{Start: start, End: end},
			Text:    strings.TrimSpace(text),
		})
	}
	return caps, nil
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	minutes := (totalMillis / 60_000) % 60
	secs := (totalMillis / 1000) % 60
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp parses HH:MM:SS,mmm (a period separator is accepted too).
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

func trimAll(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
