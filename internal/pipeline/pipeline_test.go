package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"factreel/internal/captions"
	"factreel/internal/jobs"
	"factreel/internal/render"
	"factreel/internal/services"
	"factreel/internal/timeline"
)

type fakeStore struct {
	created  []string
	stages   []string
	attempts int
	complete *jobs.Completion
	failed   string
}

func (f *fakeStore) Create(_ context.Context, id, topic string) (*jobs.Job, error) {
	f.created = append(f.created, id)
	return &jobs.Job{ID: id, Topic: topic, Status: jobs.StatusPending}, nil
}

func (f *fakeStore) UpdateStage(_ context.Context, _ string, stage string) error {
	f.stages = append(f.stages, stage)
	return nil
}

func (f *fakeStore) RecordAttempts(_ context.Context, _ string, attempts int) error {
	f.attempts = attempts
	return nil
}

func (f *fakeStore) Complete(_ context.Context, _ string, result jobs.Completion) error {
	f.complete = &result
	return nil
}

func (f *fakeStore) Fail(_ context.Context, _ string, message string) error {
	f.failed = message
	return nil
}

type fakeScript struct{ err error }

func (f fakeScript) Generate(_ context.Context, topic string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "Facts about " + topic, nil
}

type fakeSpeech struct{}

func (fakeSpeech) Synthesize(_ context.Context, _ string, dest string) error {
	return os.WriteFile(dest, []byte("audio"), 0o644)
}

type fakeCaptions struct{}

func (fakeCaptions) Captions(context.Context, string, string) ([]captions.Caption, error) {
	return []captions.Caption{
		{Segment: timeline.Segment{Start: 0, End: 2}, Text: "one"},
		{Segment: timeline.Segment{Start: 2, End: 4}, Text: "two"},
		{Segment: timeline.Segment{Start: 4, End: 6}, Text: "three"},
	}, nil
}

type fakeKeywords struct {
	gotScript string
	err       error
}

func (f *fakeKeywords) GenerateWithAttempts(_ context.Context, script string, caps []captions.Caption) (timeline.QueryTimeline, int, error) {
	f.gotScript = script
	if f.err != nil {
		return nil, 2, f.err
	}
	qt := make(timeline.QueryTimeline, 0, len(caps))
	for _, c := range caps {
		qt = append(qt, timeline.QueryEntry{Segment: c.Segment, Keywords: timeline.KeywordBatch{c.Text}})
	}
	return qt, 3, nil
}

type fakeFootage struct{ rt timeline.ResourceTimeline }

func (f fakeFootage) Resolve(_ context.Context, qt timeline.QueryTimeline) (timeline.ResourceTimeline, error) {
	if f.rt != nil {
		return f.rt, nil
	}
	rt := make(timeline.ResourceTimeline, 0, len(qt))
	for i, entry := range qt {
		var ref *timeline.ResourceRef
		if i != 1 {
			ref = &timeline.ResourceRef{URL: "https://cdn/" + entry.Keywords[0]}
		}
		rt = append(rt, timeline.ResourceEntry{Segment: entry.Segment, Resource: ref})
	}
	return rt, nil
}

type fakeRenderer struct {
	input render.Input
	wait  bool
}

func (f *fakeRenderer) Render(ctx context.Context, in render.Input) (string, error) {
	f.input = in
	if f.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return in.OutputPath, os.WriteFile(in.OutputPath, []byte("video"), 0o644)
}

type fakePublisher struct{ key string }

func (f *fakePublisher) Publish(_ context.Context, _ string, key string) (string, error) {
	f.key = key
	return "https://bucket/" + key, nil
}

func newTestRunner(t *testing.T, stages Stages, store *fakeStore) *Runner {
	t.Helper()
	base := Stages{
		Script:   fakeScript{},
		Speech:   fakeSpeech{},
		Captions: fakeCaptions{},
		Keywords: &fakeKeywords{},
		Footage:  fakeFootage{},
		Renderer: &fakeRenderer{},
	}
	if stages.Script != nil {
		base.Script = stages.Script
	}
	if stages.Keywords != nil {
		base.Keywords = stages.Keywords
	}
	if stages.Footage != nil {
		base.Footage = stages.Footage
	}
	if stages.Renderer != nil {
		base.Renderer = stages.Renderer
	}
	base.Publisher = stages.Publisher
	runner := NewRunner(Config{WorkDir: t.TempDir(), StageTimeout: time.Minute}, base, store, nil)
	runner.newID = func() string { return "job-1" }
	return runner
}

func TestGenerateRunsStagesInOrder(t *testing.T) {
	store := &fakeStore{}
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{}
	kw := &fakeKeywords{}
	runner := newTestRunner(t, Stages{Renderer: renderer, Publisher: publisher, Keywords: kw}, store)

	result, err := runner.Generate(context.Background(), "  octopus  ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{StageScript, StageSpeech, StageCaptions, StageKeywords, StageFootage, StageMerge, StageRender, StagePublish}
	if !slices.Equal(store.stages, want) {
		t.Fatalf("stages = %v, want %v", store.stages, want)
	}
	if kw.gotScript != "Facts about octopus" {
		t.Fatalf("unexpected script passed to keywords: %q", kw.gotScript)
	}
	if len(renderer.input.Timeline) != 2 {
		t.Fatalf("expected merged timeline with 2 entries, got %+v", renderer.input.Timeline)
	}
	if renderer.input.Timeline[0].Segment.End != 4 || renderer.input.TotalDuration != 6 {
		t.Fatalf("unexpected render input %+v", renderer.input)
	}
	if result.JobID != "job-1" || result.PublishedURL != "https://bucket/job-1/octopus.mp4" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.KeywordAttempts != 3 || store.attempts != 3 {
		t.Fatalf("expected 3 keyword attempts, got %d/%d", result.KeywordAttempts, store.attempts)
	}
	if store.complete == nil || store.complete.OutputPath != result.OutputPath || store.complete.UnresolvedSegments != 0 {
		t.Fatalf("unexpected completion %+v", store.complete)
	}

	data, err := os.ReadFile(filepath.Join(runner.cfg.WorkDir, "job-1", "timeline.json"))
	if err != nil {
		t.Fatalf("read timeline.json: %v", err)
	}
	var saved timelineFile
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("decode timeline.json: %v", err)
	}
	if len(saved.Query) != 3 || len(saved.Resource) != 3 || len(saved.Merged) != 2 || saved.TotalDuration != 6 {
		t.Fatalf("unexpected saved timelines %+v", saved)
	}
}

func TestGenerateRequiresTopic(t *testing.T) {
	store := &fakeStore{}
	runner := newTestRunner(t, Stages{}, store)
	_, err := runner.Generate(context.Background(), "   ")
	if !errors.Is(err, ErrMissingTopic) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected missing topic validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), MissingTopicMessage) {
		t.Fatalf("expected user message in %q", err.Error())
	}
	if len(store.created) != 0 {
		t.Fatal("no job should be created without a topic")
	}
}

func TestGenerateStageFailureMarksJob(t *testing.T) {
	store := &fakeStore{}
	kw := &fakeKeywords{err: errors.New("coverage unattainable")}
	renderer := &fakeRenderer{}
	runner := newTestRunner(t, Stages{Keywords: kw, Renderer: renderer}, store)

	_, err := runner.Generate(context.Background(), "volcanoes")
	if err == nil || !strings.Contains(err.Error(), "coverage unattainable") {
		t.Fatalf("expected keyword failure, got %v", err)
	}
	if store.failed == "" || store.complete != nil {
		t.Fatalf("expected job marked failed, got failed=%q complete=%+v", store.failed, store.complete)
	}
	if store.stages[len(store.stages)-1] != StageKeywords {
		t.Fatalf("expected to stop at keywords, got %v", store.stages)
	}
	if renderer.input.OutputPath != "" {
		t.Fatal("renderer must not run after a failed stage")
	}
	if store.attempts != 2 {
		t.Fatalf("expected attempts recorded on failure, got %d", store.attempts)
	}
}

func TestGenerateMergeRejectsGaps(t *testing.T) {
	store := &fakeStore{}
	gappy := timeline.ResourceTimeline{
		{Segment: timeline.Segment{Start: 0, End: 2}},
		{Segment: timeline.Segment{Start: 3, End: 6}},
	}
	runner := newTestRunner(t, Stages{Footage: fakeFootage{rt: gappy}}, store)
	_, err := runner.Generate(context.Background(), "gaps")
	if !errors.Is(err, services.ErrValidation) || !errors.Is(err, timeline.ErrDiscontinuous) {
		t.Fatalf("expected discontinuity validation error, got %v", err)
	}
}

func TestGenerateBusyWhenLocked(t *testing.T) {
	store := &fakeStore{}
	runner := newTestRunner(t, Stages{}, store)
	if err := os.MkdirAll(runner.cfg.WorkDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(runner.cfg.LockPath)
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("hold lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	_, err = runner.Generate(context.Background(), "anything")
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if len(store.created) != 0 {
		t.Fatal("busy pipeline must not create a job")
	}
}

func TestGenerateStageTimeout(t *testing.T) {
	store := &fakeStore{}
	renderer := &fakeRenderer{wait: true}
	runner := newTestRunner(t, Stages{Renderer: renderer}, store)
	runner.cfg.StageTimeout = 20 * time.Millisecond

	_, err := runner.Generate(context.Background(), "slow")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if services.FailureKind(err) != "timeout" {
		t.Fatalf("unexpected failure kind %q", services.FailureKind(err))
	}
}

func TestRunWithCaptionsFileSkipsExtraction(t *testing.T) {
	store := &fakeStore{}
	renderer := &fakeRenderer{}
	runner := newTestRunner(t, Stages{Renderer: renderer}, store)
	runner.stages.Captions = failingCaptions{}

	srt := filepath.Join(t.TempDir(), "narration.srt")
	body := "1\n00:00:00,000 --> 00:00:01,500\nhello\n\n2\n00:00:01,500 --> 00:00:03,000\nworld\n"
	if err := os.WriteFile(srt, []byte(body), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}
	_, err := runner.Run(context.Background(), Request{Topic: "t", Script: "given script", CaptionsFile: srt})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if renderer.input.TotalDuration != 3 {
		t.Fatalf("expected captions file duration, got %v", renderer.input.TotalDuration)
	}
}

type failingCaptions struct{}

func (failingCaptions) Captions(context.Context, string, string) ([]captions.Caption, error) {
	return nil, errors.New("extractor should not run")
}

type fakeNotifier struct {
	readyTopic    string
	readyLocation string
	failedTopic   string
	failedErr     error
	err           error
}

func (f *fakeNotifier) NotifyVideoReady(_ context.Context, topic, location string, _ time.Duration) error {
	f.readyTopic = topic
	f.readyLocation = location
	return f.err
}

func (f *fakeNotifier) NotifyJobFailed(_ context.Context, topic string, err error) error {
	f.failedTopic = topic
	f.failedErr = err
	return f.err
}

func TestNotifierReceivesOutcome(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{err: errors.New("ntfy down")}
	runner := newTestRunner(t, Stages{}, store)
	runner.stages.Notifier = notifier

	result, err := runner.Generate(context.Background(), "tides")
	if err != nil {
		t.Fatalf("notification failure must not fail the job: %v", err)
	}
	if notifier.readyTopic != "tides" || notifier.readyLocation != result.OutputPath {
		t.Fatalf("unexpected ready notification %+v", notifier)
	}

	failing := newTestRunner(t, Stages{Keywords: &fakeKeywords{err: errors.New("coverage unattainable")}}, &fakeStore{})
	failing.stages.Notifier = notifier
	if _, err := failing.Generate(context.Background(), "storms"); err == nil {
		t.Fatal("expected keyword failure")
	}
	if notifier.failedTopic != "storms" || notifier.failedErr == nil {
		t.Fatalf("unexpected failure notification %+v", notifier)
	}
}
