package timeline

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRepairNormalizesNoise(t *testing.T) {
	cases := map[string]string{
		"smart double quotes": "[[[0, 2.5], [“cheetah running”, “fastest animal”, “75 mph”]]]",
		"code fence":          "```json\n[[[0, 2.5], [\"cheetah running\", \"fastest animal\", \"75 mph\"]]]\n```",
		"bare fence":          "```\n[[[0, 2.5], [\"cheetah running\", \"fastest animal\", \"75 mph\"]]]\n```",
		"single quotes":       "[[[0, 2.5], ['cheetah running', 'fastest animal', '75 mph']]]",
		"smart single quotes": "[[[0, 2.5], [‘cheetah running’, ‘fastest animal’, ‘75 mph’]]]",
		"prose around":        "Here is the timeline you asked for:\n[[[0, 2.5], [\"cheetah running\", \"fastest animal\", \"75 mph\"]]]\nLet me know if you need more.",
	}
	want := QueryTimeline{{
		Segment:  Segment{Start: 0, End: 2.5},
		Keywords: KeywordBatch{"cheetah running", "fastest animal", "75 mph"},
	}}
	for name, raw := range cases {
		repaired, err := Repair(raw)
		if err != nil {
			t.Fatalf("%s: Repair returned error: %v", name, err)
		}
		got, err := Decode(repaired)
		if err != nil {
			t.Fatalf("%s: Decode(%q) returned error: %v", name, repaired, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: unexpected timeline %+v", name, got)
		}
	}
}

func TestRepairContractions(t *testing.T) {
	raw := `[[[0, 3], ["you didn"t", "door", "it"s raining"]]]`
	repaired, err := Repair(raw)
	if err != nil {
		t.Fatalf("Repair returned error: %v", err)
	}
	got, err := Decode(repaired)
	if err != nil {
		t.Fatalf("Decode(%q) returned error: %v", repaired, err)
	}
	want := KeywordBatch{"you didn't", "door", "it's raining"}
	if !reflect.DeepEqual(got[0].Keywords, want) {
		t.Fatalf("unexpected keywords %q", got[0].Keywords)
	}
}

func TestRepairContractionsInsideSingleQuotedList(t *testing.T) {
	// The contraction table runs before delimiters are rewritten, so the
	// restored apostrophe is treated as part of the word.
	raw := `[[[0, 3], ['don"t panic', 'door', 'it"s raining']]]`
	repaired, err := Repair(raw)
	if err != nil {
		t.Fatalf("Repair returned error: %v", err)
	}
	got, err := Decode(repaired)
	if err != nil {
		t.Fatalf("Decode(%q) returned error: %v", repaired, err)
	}
	want := KeywordBatch{"don't panic", "door", "it's raining"}
	if !reflect.DeepEqual(got[0].Keywords, want) {
		t.Fatalf("unexpected keywords %q", got[0].Keywords)
	}
}

func TestRepairKeepsApostrophesInsideSingleQuotedWords(t *testing.T) {
	raw := `[[[0, 3], ['driver's seat', 'rock 'n roll', "chef's knife"]]]`
	repaired, err := Repair(raw)
	if err != nil {
		t.Fatalf("Repair returned error: %v", err)
	}
	got, err := Decode(repaired)
	if err != nil {
		t.Fatalf("Decode(%q) returned error: %v", repaired, err)
	}
	want := KeywordBatch{"driver's seat", "rock 'n roll", "chef's knife"}
	if !reflect.DeepEqual(got[0].Keywords, want) {
		t.Fatalf("unexpected keywords %q", got[0].Keywords)
	}
}

func TestRepairIdempotentOnCleanInput(t *testing.T) {
	clean := `[[[0, 2], ["rainy street", "cat sleeping", "red house"]], [[2, 4.75], ["it's \"quoted\"", "a, b", "crying child"]]]`
	direct, err := Decode(clean)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	repaired, err := Repair(clean)
	if err != nil {
		t.Fatalf("Repair returned error: %v", err)
	}
	viaRepair, err := Decode(repaired)
	if err != nil {
		t.Fatalf("Decode(repaired) returned error: %v", err)
	}
	if !reflect.DeepEqual(direct, viaRepair) {
		t.Fatalf("repair changed clean data:\n direct %+v\n repair %+v", direct, viaRepair)
	}
	again, err := Repair(repaired)
	if err != nil {
		t.Fatalf("second Repair returned error: %v", err)
	}
	if again != repaired {
		t.Fatalf("repair not stable: %q vs %q", again, repaired)
	}
}

func TestRepairEmpty(t *testing.T) {
	for _, raw := range []string{"", "   \n", "```\n```"} {
		if _, err := Repair(raw); !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("Repair(%q): expected ErrMalformedResponse, got %v", raw, err)
		}
	}
}

func TestStripFencesExtractsOutermostArray(t *testing.T) {
	got := stripFences("Sure! ```json [[1]] ``` done")
	if strings.TrimSpace(got) != "[[1]]" {
		t.Fatalf("unexpected strip result %q", got)
	}
}
