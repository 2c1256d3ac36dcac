package timeline

import (
	"errors"
	"reflect"
	"testing"
)

func ref(url string) *ResourceRef {
	return &ResourceRef{URL: url}
}

func entry(start, end float64, resource *ResourceRef) ResourceEntry {
	return ResourceEntry{Segment: Segment{Start: start, End: end}, Resource: resource}
}

func TestMergeAbsorbsGapIntoPreviousResource(t *testing.T) {
	in := ResourceTimeline{
		entry(0, 5, ref("urlA")),
		entry(5, 10, nil),
		entry(10, 15, nil),
		entry(15, 20, ref("urlB")),
	}
	got, err := Merge(in)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	want := ResourceTimeline{
		entry(0, 15, ref("urlA")),
		entry(15, 20, ref("urlB")),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected merge result:\n got %+v\nwant %+v", got, want)
	}
	if in[0].Segment.End != 5 {
		t.Fatalf("input was modified: %+v", in[0])
	}
}

func TestMergeLeadingGapUnchanged(t *testing.T) {
	in := ResourceTimeline{
		entry(0, 5, nil),
		entry(5, 10, ref("urlA")),
	}
	got, err := Merge(in)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("expected leading gap to be kept, got %+v", got)
	}
}

func TestMergeCollapsesLeadingRun(t *testing.T) {
	in := ResourceTimeline{
		entry(0, 2, nil),
		entry(2, 4, nil),
		entry(4, 7, nil),
		entry(7, 9, ref("urlA")),
		entry(9, 12, nil),
	}
	got, err := Merge(in)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	want := ResourceTimeline{
		entry(0, 7, nil),
		entry(7, 12, ref("urlA")),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected merge result:\n got %+v\nwant %+v", got, want)
	}
}

func TestMergeKeepsResolvedSegments(t *testing.T) {
	in := ResourceTimeline{
		entry(0, 3, ref("a")),
		entry(3, 6, ref("a")),
		entry(6, 9, ref("b")),
	}
	got, err := Merge(in)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("resolved segments must not be merged or split, got %+v", got)
	}
}

func TestMergeIdempotentAndCoveragePreserving(t *testing.T) {
	cases := []ResourceTimeline{
		{},
		{entry(0, 4, nil)},
		{entry(0, 4, ref("a"))},
		{entry(0, 2, nil), entry(2, 4, ref("a")), entry(4, 6, nil), entry(6, 8, nil), entry(8, 10, ref("b")), entry(10, 13.5, nil)},
		{entry(1.5, 3, ref("a")), entry(3, 4.25, nil), entry(4.25, 7, ref("b"))},
	}
	for i, tc := range cases {
		once, err := Merge(tc)
		if err != nil {
			t.Fatalf("case %d: Merge returned error: %v", i, err)
		}
		twice, err := Merge(once)
		if err != nil {
			t.Fatalf("case %d: second Merge returned error: %v", i, err)
		}
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("case %d: merge not idempotent:\n once %+v\ntwice %+v", i, once, twice)
		}
		if len(tc) == 0 {
			if len(once) != 0 {
				t.Fatalf("case %d: expected empty output, got %+v", i, once)
			}
			continue
		}
		if once[0].Segment.Start != tc[0].Segment.Start || once.End() != tc.End() {
			t.Fatalf("case %d: coverage changed: in [%v,%v) out [%v,%v)", i, tc[0].Segment.Start, tc.End(), once[0].Segment.Start, once.End())
		}
		if err := ValidateContiguous(once.Segments(), tc[0].Segment.Start, 0); err != nil {
			t.Fatalf("case %d: merged output not contiguous: %v", i, err)
		}
		resolvedIn, resolvedOut := 0, 0
		for _, e := range tc {
			if e.Resolved() {
				resolvedIn++
			}
		}
		for _, e := range once {
			if e.Resolved() {
				resolvedOut++
			}
		}
		if resolvedIn != resolvedOut {
			t.Fatalf("case %d: resolved count changed from %d to %d", i, resolvedIn, resolvedOut)
		}
	}
}

func TestMergeRejectsIllFormedInput(t *testing.T) {
	cases := map[string]ResourceTimeline{
		"gap":      {entry(0, 5, ref("a")), entry(6, 10, nil)},
		"overlap":  {entry(0, 5, ref("a")), entry(4, 10, nil)},
		"empty":    {entry(0, 0, ref("a"))},
		"reversed": {entry(5, 10, ref("a")), entry(0, 5, nil)},
	}
	for name, tc := range cases {
		if _, err := Merge(tc); !errors.Is(err, ErrDiscontinuous) {
			t.Fatalf("%s: expected ErrDiscontinuous, got %v", name, err)
		}
	}
}
