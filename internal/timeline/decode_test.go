package timeline

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeValidTimeline(t *testing.T) {
	text := `[[[0, 2.4], ["cheetah running", "fastest animal", "75 mph"]], [[2.4, 5], ["great wall"]]]`
	got, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	want := QueryTimeline{
		{Segment: Segment{Start: 0, End: 2.4}, Keywords: KeywordBatch{"cheetah running", "fastest animal", "75 mph"}},
		{Segment: Segment{Start: 2.4, End: 5}, Keywords: KeywordBatch{"great wall"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected timeline %+v", got)
	}
	if got.End() != 5 {
		t.Fatalf("expected end 5, got %v", got.End())
	}
}

func TestDecodeEmptyArray(t *testing.T) {
	got, err := Decode(`[]`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(got) != 0 || got.End() != 0 {
		t.Fatalf("expected empty timeline, got %+v", got)
	}
}

func TestDecodeRejectsMalformedShapes(t *testing.T) {
	cases := map[string]string{
		"not json":          `[[[0, 2], ["a"]]`,
		"object root":       `{"segments": []}`,
		"null root":         `null`,
		"entry not pair":    `[[[0, 2]]]`,
		"entry triple":      `[[[0, 2], ["a"], ["b"]]]`,
		"segment scalar":    `[[0, ["a"]]]`,
		"segment short":     `[[[0], ["a"]]]`,
		"string start":      `[[["0", 2], ["a"]]]`,
		"null end":          `[[[0, null], ["a"]]]`,
		"keywords string":   `[[[0, 2], "a"]]`,
		"keywords null":     `[[[0, 2], null]]`,
		"keyword number":    `[[[0, 2], ["a", 3]]]`,
		"trailing garbage":  `[[[0, 2], ["a"]]] extra`,
		"python single":     `[[[0, 2], ['a']]]`,
		"smart quoted json": "[[[0, 2], [“a”]]]",
	}
	for name, text := range cases {
		if _, err := Decode(text); !errors.Is(err, ErrDecode) {
			t.Fatalf("%s: expected ErrDecode, got %v", name, err)
		}
	}
}

func TestDecodeWithRepairDirectFirst(t *testing.T) {
	res := DecodeWithRepair(`[[[0, 2], ["a", "b", "c"]]]`)
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Repaired {
		t.Fatal("clean input should not be repaired")
	}
}

func TestDecodeWithRepairFallsBack(t *testing.T) {
	res := DecodeWithRepair("```json\n[[[0, 2], ['a', 'b', 'c']]]\n```")
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Repaired {
		t.Fatal("expected repaired flag")
	}
	if len(res.Timeline) != 1 || res.Timeline[0].Keywords[2] != "c" {
		t.Fatalf("unexpected timeline %+v", res.Timeline)
	}
}

func TestDecodeWithRepairReportsFailure(t *testing.T) {
	res := DecodeWithRepair("I cannot help with that.")
	if res.OK() {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", res.Err)
	}

	res = DecodeWithRepair("   ")
	if !errors.Is(res.Err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse for blank input, got %v", res.Err)
	}
}

func TestValidateContiguous(t *testing.T) {
	good := []Segment{{0, 2}, {2, 4.5}, {4.5, 7}}
	if err := ValidateContiguous(good, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateContiguous([]Segment{{0, 2}, {2.04, 4}}, 0, 0.05); err != nil {
		t.Fatalf("tolerance should absorb small gap: %v", err)
	}
	bad := map[string][]Segment{
		"empty":       nil,
		"late start":  {{1, 2}},
		"gap":         {{0, 2}, {3, 4}},
		"overlap":     {{0, 2}, {1, 4}},
		"zero length": {{0, 2}, {2, 2}},
	}
	for name, segs := range bad {
		if err := ValidateContiguous(segs, 0, 0.01); !errors.Is(err, ErrDiscontinuous) {
			t.Fatalf("%s: expected ErrDiscontinuous, got %v", name, err)
		}
	}
}
