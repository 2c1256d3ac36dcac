package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"factreel/internal/captions"
	"factreel/internal/services"
	"factreel/internal/timeline"
)

func probeJSON(duration string) func(context.Context, string, ...string) ([]byte, error) {
	return func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"video","width":1920,"height":1080},{"codec_type":"audio"}],"format":{"duration":"` + duration + `"}}`), nil
	}
}

func TestRenderBuildsFiltergraph(t *testing.T) {
	var downloads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads++
		_, _ = w.Write([]byte("clip-" + r.URL.Path))
	}))
	defer server.Close()

	dir := t.TempDir()
	var gotArgs []string
	renderer := New(Config{},
		WithCommandRunner(func(_ context.Context, name string, args ...string) error {
			if name != "ffmpeg" {
				t.Fatalf("unexpected binary %q", name)
			}
			gotArgs = args
			return nil
		}),
		WithProbeRunner(probeJSON("6.0")),
	)

	in := Input{
		Timeline: timeline.ResourceTimeline{
			{Segment: timeline.Segment{Start: 0, End: 2}},
			{Segment: timeline.Segment{Start: 2, End: 4}, Resource: &timeline.ResourceRef{URL: server.URL + "/a.mp4"}},
			{Segment: timeline.Segment{Start: 4, End: 6}, Resource: &timeline.ResourceRef{URL: server.URL + "/b.mp4"}},
		},
		AudioPath:     filepath.Join(dir, "narration.mp3"),
		Captions:      []captions.Caption{{Segment: timeline.Segment{Start: 0, End: 1}, Text: "hello"}},
		TotalDuration: 6,
		WorkDir:       dir,
		OutputPath:    filepath.Join(dir, "out", "video.mp4"),
	}
	out, err := renderer.Render(context.Background(), in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != in.OutputPath {
		t.Fatalf("unexpected output %q", out)
	}
	if downloads != 2 {
		t.Fatalf("expected 2 downloads, got %d", downloads)
	}
	if _, err := os.Stat(filepath.Join(dir, "clips", "clip_000.mp4")); err != nil {
		t.Fatalf("expected first clip on disk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "captions.srt")); err != nil {
		t.Fatalf("expected captions file: %v", err)
	}

	idx := slices.Index(gotArgs, "-filter_complex")
	if idx < 0 {
		t.Fatalf("missing filter_complex in %v", gotArgs)
	}
	graph := gotArgs[idx+1]
	for _, want := range []string{
		"trim=duration=2.000",
		"force_original_aspect_ratio=increase",
		"concat=n=3",
		"subtitles=",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("filtergraph missing %q:\n%s", want, graph)
		}
	}
	if !slices.Contains(gotArgs, "color=c=black:s=1920x1080:r=25:d=2.000") || !slices.Contains(gotArgs, "lavfi") {
		t.Fatalf("expected lavfi black source in %v", gotArgs)
	}
	loops := 0
	for _, arg := range gotArgs {
		if arg == "-stream_loop" {
			loops++
		}
	}
	if loops != 2 {
		t.Fatalf("expected 2 looped clip inputs, got %d in %v", loops, gotArgs)
	}
	for _, want := range []string{"-map", "-y", in.OutputPath, in.AudioPath} {
		if !slices.Contains(gotArgs, want) {
			t.Fatalf("args missing %q: %v", want, gotArgs)
		}
	}
	if tIdx := slices.Index(gotArgs, "-t"); tIdx < 0 || gotArgs[tIdx+1] != "6.000" {
		t.Fatalf("expected -t 6.000 in %v", gotArgs)
	}
}

func TestRenderWithoutCaptionsMapsConcat(t *testing.T) {
	dir := t.TempDir()
	var gotArgs []string
	renderer := New(Config{Width: 1080, Height: 1920},
		WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
			gotArgs = args
			return nil
		}),
		WithProbeRunner(probeJSON("3.0")),
	)
	_, err := renderer.Render(context.Background(), Input{
		Timeline:      timeline.ResourceTimeline{{Segment: timeline.Segment{Start: 0, End: 3}}},
		AudioPath:     "narration.mp3",
		TotalDuration: 3,
		WorkDir:       dir,
		OutputPath:    filepath.Join(dir, "video.mp4"),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !slices.Contains(gotArgs, "color=c=black:s=1080x1920:r=25:d=3.000") {
		t.Fatalf("expected portrait black source in %v", gotArgs)
	}
	graph := gotArgs[slices.Index(gotArgs, "-filter_complex")+1]
	if strings.Contains(graph, "subtitles") {
		t.Fatalf("unexpected caption filter in %s", graph)
	}
}

func TestRenderFailures(t *testing.T) {
	dir := t.TempDir()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolved := timeline.ResourceTimeline{{Segment: timeline.Segment{Start: 0, End: 1}, Resource: &timeline.ResourceRef{URL: server.URL + "/gone.mp4"}}}
	unresolved := timeline.ResourceTimeline{{Segment: timeline.Segment{Start: 0, End: 1}}}
	ok := func(context.Context, string, ...string) error { return nil }

	tests := []struct {
		name   string
		in     Input
		run    func(context.Context, string, ...string) error
		probe  func(context.Context, string, ...string) ([]byte, error)
		marker error
	}{
		{name: "empty timeline", in: Input{AudioPath: "a", OutputPath: filepath.Join(dir, "o.mp4")}, run: ok, marker: services.ErrValidation},
		{name: "download status", in: Input{Timeline: resolved, AudioPath: "a", WorkDir: dir, OutputPath: filepath.Join(dir, "o.mp4")}, run: ok, marker: services.ErrServiceFailure},
		{name: "ffmpeg error", in: Input{Timeline: unresolved, AudioPath: "a", WorkDir: dir, OutputPath: filepath.Join(dir, "o.mp4")}, run: func(context.Context, string, ...string) error { return errors.New("exit 1") }, marker: services.ErrExternalTool},
		{name: "no video stream", in: Input{Timeline: unresolved, AudioPath: "a", WorkDir: dir, OutputPath: filepath.Join(dir, "o.mp4")}, run: ok,
			probe: func(context.Context, string, ...string) ([]byte, error) { return []byte(`{"streams":[],"format":{}}`), nil }, marker: services.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			probe := tc.probe
			if probe == nil {
				probe = probeJSON("1.0")
			}
			renderer := New(Config{}, WithCommandRunner(tc.run), WithProbeRunner(probe))
			_, err := renderer.Render(context.Background(), tc.in)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}
