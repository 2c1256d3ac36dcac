package timeline

import (
	"errors"
	"reflect"
	"testing"
)

func TestSnapClosesGapsAndOverlaps(t *testing.T) {
	in := QueryTimeline{
		{Segment: Segment{Start: 0.01, End: 2.48}, Keywords: KeywordBatch{"a"}},
		{Segment: Segment{Start: 2.5, End: 4}, Keywords: KeywordBatch{"b"}},
		{Segment: Segment{Start: 3.97, End: 5}, Keywords: KeywordBatch{"c"}},
	}
	got := Snap(in, 0)
	want := QueryTimeline{
		{Segment: Segment{Start: 0, End: 2.48}, Keywords: KeywordBatch{"a"}},
		{Segment: Segment{Start: 2.48, End: 4}, Keywords: KeywordBatch{"b"}},
		{Segment: Segment{Start: 4, End: 5}, Keywords: KeywordBatch{"c"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Snap = %+v, want %+v", got, want)
	}
	if err := ValidateContiguous(got.Segments(), 0, 0); err != nil {
		t.Fatalf("snapped timeline not contiguous: %v", err)
	}
	if in[1].Segment.Start != 2.5 {
		t.Fatal("input was modified")
	}
	got[0].Keywords[0] = "changed"
	if in[0].Keywords[0] != "a" {
		t.Fatal("keywords shared with input")
	}
}

func TestSnapExposesCollapsedSegment(t *testing.T) {
	in := QueryTimeline{
		{Segment: Segment{Start: 0, End: 3}},
		{Segment: Segment{Start: 2, End: 2.5}},
		{Segment: Segment{Start: 2.5, End: 5}},
	}
	err := ValidateContiguous(Snap(in, 0).Segments(), 0, 0)
	if !errors.Is(err, ErrDiscontinuous) {
		t.Fatalf("expected ErrDiscontinuous, got %v", err)
	}
}
