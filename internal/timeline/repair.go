package timeline

import (
	"errors"
	"strings"
)

// ErrMalformedResponse marks text that cannot be normalized into a parseable
// timeline payload.
var ErrMalformedResponse = errors.New("malformed response")

var smartQuoteReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"‚", "'",
	"‛", "'",
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‟", `"`,
)

// contractionFixes repairs words the text service emits with a double quote in
// place of the apostrophe, which closes the surrounding string early. Keys are
// the exact broken pattern.
var contractionFixes = []struct {
	broken string
	fixed  string
}{
	{`"you didn"t"`, `"you didn't"`},
	{`didn"t`, `didn't`},
	{`don"t`, `don't`},
	{`doesn"t`, `doesn't`},
	{`isn"t`, `isn't`},
	{`wasn"t`, `wasn't`},
	{`aren"t`, `aren't`},
	{`can"t`, `can't`},
	{`won"t`, `won't`},
	{`it"s`, `it's`},
}

// Repair normalizes lexical noise in a text-service response so a strict JSON
// parser can consume it. The transforms run in order: smart quotes become
// straight quotes, surrounding code fences and prose are stripped, the
// contraction table is applied, and single-quoted strings are rewritten with
// double quotes. Repair never looks at timeline semantics.
func Repair(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrMalformedResponse
	}
	text = smartQuoteReplacer.Replace(text)
	text = stripFences(text)
	if text == "" {
		return "", ErrMalformedResponse
	}
	for _, fix := range contractionFixes {
		text = strings.ReplaceAll(text, fix.broken, fix.fixed)
	}
	return normalizeQuoteDelimiters(text), nil
}

// stripFences removes a ``` or ```json wrapper and any prose outside the
// outermost brackets.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		body := strings.TrimLeft(trimmed[3:], " \t\r\n")
		if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
			body = strings.TrimLeft(body[4:], " \t\r\n")
		}
		if idx := strings.LastIndex(body, "```"); idx >= 0 {
			body = body[:idx]
		}
		trimmed = strings.TrimSpace(body)
	} else {
		trimmed = strings.TrimSpace(strings.ReplaceAll(trimmed, "```json", ""))
		trimmed = strings.TrimSpace(strings.ReplaceAll(trimmed, "```", ""))
	}
	if trimmed == "" || trimmed[0] == '[' {
		return trimmed
	}
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start >= 0 && end > start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

// normalizeQuoteDelimiters rewrites single-quoted strings ('cat sleeping')
// as JSON strings. A single quote opens a string only after a structural
// character and closes it only before one, so apostrophes inside words are
// left alone. Double-quoted strings pass through untouched.
func normalizeQuoteDelimiters(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	const (
		outside = iota
		inDouble
		inSingle
	)
	state := outside
	escaped := false
	var prev byte // last non-space byte emitted outside strings

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case inDouble:
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				state = outside
				prev = '"'
			}
		case inSingle:
			switch {
			case escaped:
				escaped = false
				b.WriteByte(c)
			case c == '\\' && i+1 < len(text) && text[i+1] == '\'':
				// \' is not a valid JSON escape.
				b.WriteByte('\'')
				i++
			case c == '\\':
				escaped = true
				b.WriteByte(c)
			case c == '"':
				b.WriteString(`\"`)
			case c == '\'' && closesString(text, i+1):
				b.WriteByte('"')
				state = outside
				prev = '"'
			default:
				b.WriteByte(c)
			}
		default:
			switch {
			case c == '"':
				state = inDouble
				b.WriteByte(c)
			case c == '\'' && opensString(prev):
				state = inSingle
				b.WriteByte('"')
			default:
				b.WriteByte(c)
				if !isSpace(c) {
					prev = c
				}
			}
		}
	}
	return b.String()
}

func opensString(prev byte) bool {
	switch prev {
	case 0, '[', ',', ':', '{', '(':
		return true
	}
	return false
}

func closesString(text string, from int) bool {
	for i := from; i < len(text); i++ {
		c := text[i]
		if isSpace(c) {
			continue
		}
		switch c {
		case ',', ']', '}', ':', ')':
			return true
		}
		return false
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
