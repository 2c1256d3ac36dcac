package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDecode marks a payload whose structure does not match the keyword
// timeline shape.
var ErrDecode = errors.New("timeline decode")

// Decode parses text of the form [[[start,end],["kw1","kw2","kw3"]], ...]
// into a QueryTimeline. The keyword count is not enforced and neither are
// ordering or coverage; see ValidateContiguous.
func Decode(text string) (QueryTimeline, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after timeline", ErrDecode)
	}

	entries, ok := root.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected array, got %s", ErrDecode, kindOf(root))
	}

	out := make(QueryTimeline, 0, len(entries))
	for i, raw := range entries {
		entry, err := decodeEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %s", ErrDecode, i, err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func decodeEntry(raw any) (QueryEntry, error) {
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return QueryEntry{}, fmt.Errorf("expected [segment, keywords] pair, got %s", describe(raw))
	}
	bounds, ok := pair[0].([]any)
	if !ok || len(bounds) != 2 {
		return QueryEntry{}, fmt.Errorf("expected [start, end], got %s", describe(pair[0]))
	}
	start, err := number(bounds[0])
	if err != nil {
		return QueryEntry{}, fmt.Errorf("start: %s", err)
	}
	end, err := number(bounds[1])
	if err != nil {
		return QueryEntry{}, fmt.Errorf("end: %s", err)
	}
	words, ok := pair[1].([]any)
	if !ok {
		return QueryEntry{}, fmt.Errorf("expected keyword list, got %s", describe(pair[1]))
	}
	batch := make(KeywordBatch, 0, len(words))
	for k, w := range words {
		s, ok := w.(string)
		if !ok {
			return QueryEntry{}, fmt.Errorf("keyword %d: expected string, got %s", k, describe(w))
		}
		batch = append(batch, s)
	}
	return QueryEntry{Segment: Segment{Start: start, End: end}, Keywords: batch}, nil
}

func number(v any) (float64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected number, got %s", describe(v))
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", n.String())
	}
	return f, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func describe(v any) string {
	if arr, ok := v.([]any); ok {
		return fmt.Sprintf("array of %d", len(arr))
	}
	return kindOf(v)
}

// Result is the outcome of DecodeWithRepair.
type Result struct {
	Timeline QueryTimeline
	Err      error
	// Repaired is true when the direct parse failed and the repaired text was
	// used for the second attempt.
	Repaired bool
}

// OK reports whether decoding succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// DecodeWithRepair decodes raw directly and, only when that fails, decodes
// Repair(raw) once. The error from the repaired attempt wins.
func DecodeWithRepair(raw string) Result {
	timeline, err := Decode(raw)
	if err == nil {
		return Result{Timeline: timeline}
	}
	repaired, repairErr := Repair(raw)
	if repairErr != nil {
		return Result{Err: fmt.Errorf("%w: %w", repairErr, err), Repaired: true}
	}
	timeline, err = Decode(repaired)
	if err != nil {
		return Result{Err: err, Repaired: true}
	}
	return Result{Timeline: timeline, Repaired: true}
}
