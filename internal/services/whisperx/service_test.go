package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"factreel/internal/services"
)

func TestCaptionsGroupsWords(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "narration.mp3")
	if err := os.WriteFile(audio, []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	var calls []string
	svc := NewService(Config{MaxChars: 15}, "ffmpeg-test")
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		calls = append(calls, name)
		if name != UVXCommand {
			return nil
		}
		idx := slices.Index(args, "--output_dir")
		if idx < 0 {
			t.Fatalf("missing --output_dir in %v", args)
		}
		payload := `{"segments":[{"text":"Cats sleep a lot","start":0,"end":2,"words":[
			{"word":"Cats","start":0,"end":0.4},
			{"word":"sleep","start":0.5,"end":0.9},
			{"word":"a","start":1.0,"end":1.1},
			{"word":"lot","start":1.2,"end":2.0}]},
			{"text":"every day","start":2.0,"end":3.0}]}`
		return os.WriteFile(filepath.Join(args[idx+1], "narration_16k.json"), []byte(payload), 0o644)
	})

	caps, err := svc.Captions(context.Background(), audio, dir)
	if err != nil {
		t.Fatalf("Captions: %v", err)
	}
	if got := strings.Join(calls, ","); got != "ffmpeg-test,uvx" {
		t.Fatalf("unexpected command order %q", got)
	}
	if len(caps) != 2 {
		t.Fatalf("expected 2 captions, got %d: %+v", len(caps), caps)
	}
	if caps[0].Text != "Cats sleep a" || caps[0].Segment.Start != 0 || caps[0].Segment.End != 1.1 {
		t.Fatalf("unexpected first caption %+v", caps[0])
	}
	if caps[1].Text != "lot every day" || caps[1].Segment.End != 3.0 {
		t.Fatalf("unexpected second caption %+v", caps[1])
	}
}

func TestCaptionsWrapsToolFailure(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{}, "")
	svc.WithCommandRunner(func(_ context.Context, name string, _ ...string) error {
		if name == UVXCommand {
			return errors.New("boom")
		}
		return nil
	})
	_, err := svc.Captions(context.Background(), filepath.Join(dir, "a.mp3"), dir)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestCaptionsRejectsEmptyTranscript(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{}, "")
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != UVXCommand {
			return nil
		}
		idx := slices.Index(args, "--output_dir")
		return os.WriteFile(filepath.Join(args[idx+1], "narration_16k.json"), []byte(`{"segments":[]}`), 0o644)
	})
	_, err := svc.Captions(context.Background(), filepath.Join(dir, "a.mp3"), dir)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBuildArgsDevice(t *testing.T) {
	cpu := NewService(Config{Language: "fr"}, "").buildArgs("in.wav", "/out")
	if !slices.Contains(cpu, CPUComputeType) || !slices.Contains(cpu, "fr") {
		t.Fatalf("cpu args missing compute type or language: %v", cpu)
	}
	if cpu[0] != "--index-url" || cpu[1] != PypiIndexURL {
		t.Fatalf("unexpected index args: %v", cpu[:2])
	}
	gpu := NewService(Config{CUDAEnabled: true}, "").buildArgs("in.wav", "/out")
	if gpu[1] != CUDAIndexURL || !slices.Contains(gpu, CUDADevice) {
		t.Fatalf("gpu args missing cuda settings: %v", gpu)
	}
	if !slices.Contains(gpu, DefaultModel) {
		t.Fatalf("expected default model in args: %v", gpu)
	}
}

func TestWordsFromSegmentsSpreadsUnaligned(t *testing.T) {
	words := WordsFromSegments([]Segment{{Text: "ab abcd", Start: 1, End: 4}})
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0].Start != 1 || words[0].End != 2 || words[1].End != 4 {
		t.Fatalf("unexpected spread %+v", words)
	}
}
