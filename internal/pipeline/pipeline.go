package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"factreel/internal/captions"
	"factreel/internal/fileutil"
	"factreel/internal/jobs"
	"factreel/internal/logging"
	"factreel/internal/render"
	"factreel/internal/services"
	"factreel/internal/textutil"
	"factreel/internal/timeline"
)

// MissingTopicMessage is shown when generation is requested without a topic.
const MissingTopicMessage = "Please enter a topic."

// ErrMissingTopic marks a request without a topic.
var ErrMissingTopic = errors.New("missing topic")

// Stage names in execution order.
const (
	StageScript   = "script"
	StageSpeech   = "speech"
	StageCaptions = "captions"
	StageKeywords = "keywords"
	StageFootage  = "footage"
	StageMerge    = "merge"
	StageRender   = "render"
	StagePublish  = "publish"
)

// ScriptWriter produces narration text for a topic.
type ScriptWriter interface {
	Generate(ctx context.Context, topic string) (string, error)
}

// Synthesizer speaks narration text into an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, dest string) error
}

// CaptionExtractor derives timed captions from narration audio.
type CaptionExtractor interface {
	Captions(ctx context.Context, audioPath, workDir string) ([]captions.Caption, error)
}

// KeywordGenerator produces a query timeline covering the captions.
type KeywordGenerator interface {
	GenerateWithAttempts(ctx context.Context, script string, caps []captions.Caption) (timeline.QueryTimeline, int, error)
}

// FootageResolver maps a query timeline onto footage.
type FootageResolver interface {
	Resolve(ctx context.Context, qt timeline.QueryTimeline) (timeline.ResourceTimeline, error)
}

// Renderer composes the final video.
type Renderer interface {
	Render(ctx context.Context, in render.Input) (string, error)
}

// Publisher uploads the finished video and returns its URL.
type Publisher interface {
	Publish(ctx context.Context, localPath, key string) (string, error)
}

// Notifier announces finished jobs.
type Notifier interface {
	NotifyVideoReady(ctx context.Context, topic, location string, duration time.Duration) error
	NotifyJobFailed(ctx context.Context, topic string, err error) error
}

// JobStore persists job progress.
type JobStore interface {
	Create(ctx context.Context, id, topic string) (*jobs.Job, error)
	UpdateStage(ctx context.Context, id, stage string) error
	RecordAttempts(ctx context.Context, id string, attempts int) error
	Complete(ctx context.Context, id string, result jobs.Completion) error
	Fail(ctx context.Context, id, message string) error
}

// Stages bundles the collaborators. Publisher and Notifier may be nil.
type Stages struct {
	Script    ScriptWriter
	Speech    Synthesizer
	Captions  CaptionExtractor
	Keywords  KeywordGenerator
	Footage   FootageResolver
	Renderer  Renderer
	Publisher Publisher
	Notifier  Notifier
}

// Config controls job layout and limits.
type Config struct {
	WorkDir      string
	LockPath     string
	OutputFile   string
	StageTimeout time.Duration
}

// Request describes one generation. Script and CaptionsFile are optional
// overrides that skip the corresponding stages.
type Request struct {
	Topic        string
	Script       string
	CaptionsFile string
}

// Result summarizes a completed job.
type Result struct {
	JobID              string  `json:"job_id"`
	OutputPath         string  `json:"output_path"`
	PublishedURL       string  `json:"published_url,omitempty"`
	DurationSeconds    float64 `json:"duration_seconds"`
	Segments           int     `json:"segments"`
	UnresolvedSegments int     `json:"unresolved_segments"`
	KeywordAttempts    int     `json:"keyword_attempts"`
}

// Runner executes generation jobs.
type Runner struct {
	cfg    Config
	stages Stages
	store  JobStore
	logger *slog.Logger
	newID  func() string
}

// NewRunner constructs a Runner.
func NewRunner(cfg Config, stages Stages, store JobStore, logger *slog.Logger) *Runner {
	if cfg.OutputFile == "" {
		cfg.OutputFile = "rendered_video.mp4"
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = 10 * time.Minute
	}
	if cfg.LockPath == "" && cfg.WorkDir != "" {
		cfg.LockPath = filepath.Join(cfg.WorkDir, "factreel.lock")
	}
	return &Runner{
		cfg:    cfg,
		stages: stages,
		store:  store,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		newID:  uuid.NewString,
	}
}

// Generate runs the full pipeline for topic.
func (r *Runner) Generate(ctx context.Context, topic string) (Result, error) {
	return r.Run(ctx, Request{Topic: topic})
}

// Run executes every stage for req and returns the finished job.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return Result{}, services.Wrap(services.ErrValidation, "", "", MissingTopicMessage, ErrMissingTopic)
	}
	if err := r.validate(); err != nil {
		return Result{}, err
	}

	unlock, err := r.acquireLock()
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	jobID := r.newID()
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, r.logger)

	if _, err := r.store.Create(ctx, jobID, req.Topic); err != nil {
		return Result{}, fmt.Errorf("create job: %w", err)
	}
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("topic", req.Topic),
	)

	started := time.Now()
	result, err := r.execute(ctx, jobID, req)
	if err != nil {
		r.recordFailure(ctx, logger, jobID, err)
		if !errors.Is(err, context.Canceled) {
			r.notify(ctx, logger, func(ctx context.Context, n Notifier) error {
				return n.NotifyJobFailed(ctx, req.Topic, err)
			})
		}
		return Result{JobID: jobID}, err
	}

	if err := r.store.Complete(ctx, jobID, jobs.Completion{
		OutputPath:         result.OutputPath,
		PublishedURL:       result.PublishedURL,
		DurationSeconds:    result.DurationSeconds,
		UnresolvedSegments: result.UnresolvedSegments,
	}); err != nil {
		return result, fmt.Errorf("complete job: %w", err)
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("output", result.OutputPath),
		logging.Duration("elapsed", time.Since(started)),
	)
	location := result.PublishedURL
	if location == "" {
		location = result.OutputPath
	}
	r.notify(ctx, logger, func(ctx context.Context, n Notifier) error {
		return n.NotifyVideoReady(ctx, req.Topic, location, time.Duration(result.DurationSeconds*float64(time.Second)))
	})
	return result, nil
}

// notify delivers a notification without failing the job.
func (r *Runner) notify(ctx context.Context, logger *slog.Logger, send func(context.Context, Notifier) error) {
	if r.stages.Notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := send(notifyCtx, r.stages.Notifier); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failure", logging.Error(err))
	}
}

func (r *Runner) execute(ctx context.Context, jobID string, req Request) (Result, error) {
	result := Result{JobID: jobID}
	jobDir := filepath.Join(r.cfg.WorkDir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return result, fmt.Errorf("create job dir: %w", err)
	}

	script := strings.TrimSpace(req.Script)
	if err := r.stage(ctx, jobID, StageScript, func(ctx context.Context) error {
		if script != "" {
			return nil
		}
		text, err := r.stages.Script.Generate(ctx, req.Topic)
		if err != nil {
			return err
		}
		script = text
		return nil
	}); err != nil {
		return result, err
	}
	if err := os.WriteFile(filepath.Join(jobDir, "script.txt"), []byte(script+"\n"), 0o644); err != nil {
		return result, fmt.Errorf("write script: %w", err)
	}

	audioPath := filepath.Join(jobDir, "narration.mp3")
	if err := r.stage(ctx, jobID, StageSpeech, func(ctx context.Context) error {
		return r.stages.Speech.Synthesize(ctx, script, audioPath)
	}); err != nil {
		return result, err
	}

	var caps []captions.Caption
	if err := r.stage(ctx, jobID, StageCaptions, func(ctx context.Context) error {
		var err error
		if req.CaptionsFile != "" {
			kept := filepath.Join(jobDir, "captions_input.srt")
			if err := fileutil.CopyFile(req.CaptionsFile, kept); err != nil {
				return services.Wrap(services.ErrValidation, StageCaptions, "copy captions", req.CaptionsFile, err)
			}
			caps, err = readCaptions(kept)
		} else {
			caps, err = r.stages.Captions.Captions(ctx, audioPath, jobDir)
		}
		if err != nil {
			return err
		}
		if err := captions.Validate(caps); err != nil {
			return services.Wrap(services.ErrValidation, StageCaptions, "validate", "", err)
		}
		return nil
	}); err != nil {
		return result, err
	}
	total := captions.TotalDuration(caps)
	result.DurationSeconds = total

	var qt timeline.QueryTimeline
	if err := r.stage(ctx, jobID, StageKeywords, func(ctx context.Context) error {
		var (
			attempts int
			err      error
		)
		qt, attempts, err = r.stages.Keywords.GenerateWithAttempts(ctx, script, caps)
		result.KeywordAttempts = attempts
		if attempts > 0 {
			if recErr := r.store.RecordAttempts(ctx, jobID, attempts); recErr != nil {
				r.logger.Warn("record keyword attempts failed", logging.Error(recErr))
			}
		}
		return err
	}); err != nil {
		return result, err
	}

	var rt timeline.ResourceTimeline
	if err := r.stage(ctx, jobID, StageFootage, func(ctx context.Context) error {
		var err error
		rt, err = r.stages.Footage.Resolve(ctx, qt)
		return err
	}); err != nil {
		return result, err
	}

	var merged timeline.ResourceTimeline
	if err := r.stage(ctx, jobID, StageMerge, func(context.Context) error {
		var err error
		merged, err = timeline.Merge(rt)
		if err != nil {
			return services.Wrap(services.ErrValidation, StageMerge, "merge", "", err)
		}
		return nil
	}); err != nil {
		return result, err
	}
	result.Segments = len(merged)
	result.UnresolvedSegments = merged.Unresolved()

	if err := writeTimelines(filepath.Join(jobDir, "timeline.json"), total, qt, rt, merged); err != nil {
		return result, err
	}

	if err := r.stage(ctx, jobID, StageRender, func(ctx context.Context) error {
		out, err := r.stages.Renderer.Render(ctx, render.Input{
			Timeline:      merged,
			AudioPath:     audioPath,
			Captions:      caps,
			TotalDuration: total,
			WorkDir:       jobDir,
			OutputPath:    filepath.Join(jobDir, r.cfg.OutputFile),
		})
		result.OutputPath = out
		return err
	}); err != nil {
		return result, err
	}

	if r.stages.Publisher != nil {
		if err := r.stage(ctx, jobID, StagePublish, func(ctx context.Context) error {
			url, err := r.stages.Publisher.Publish(ctx, result.OutputPath, publishKey(jobID, req.Topic, result.OutputPath))
			if err != nil {
				return services.Wrap(services.ErrServiceFailure, StagePublish, "upload", "", err)
			}
			result.PublishedURL = url
			return nil
		}); err != nil {
			return result, err
		}
	}
	return result, nil
}

// publishKey names the uploaded object after the topic, keeping the
// rendered file's extension.
func publishKey(jobID, topic, outputPath string) string {
	return path.Join(jobID, textutil.Slug(topic)+filepath.Ext(outputPath))
}

// stage runs fn with the stage recorded in the store and attached to ctx,
// bounded by the configured stage timeout.
func (r *Runner) stage(ctx context.Context, jobID, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, r.logger)
	if err := r.store.UpdateStage(ctx, jobID, name); err != nil {
		return fmt.Errorf("record stage %s: %w", name, err)
	}

	stageCtx, cancel := context.WithTimeout(ctx, r.cfg.StageTimeout)
	defer cancel()

	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()
	err := fn(stageCtx)
	if err == nil {
		logger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", time.Since(started)),
		)
		return nil
	}
	if errors.Is(stageCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, services.ErrTimeout) {
		err = services.Wrap(services.ErrTimeout, name, "deadline", r.cfg.StageTimeout.String(), err)
	}
	return err
}

func (r *Runner) recordFailure(ctx context.Context, logger *slog.Logger, jobID string, err error) {
	message := strings.TrimSpace(err.Error())
	if errors.Is(err, context.Canceled) {
		message = "canceled"
	}
	logging.ErrorWithContext(logger, "job failed", "job_failure",
		logging.String("failure_kind", services.FailureKind(err)),
		logging.Error(err),
	)
	// The caller's context may already be canceled; the failure is still recorded.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if storeErr := r.store.Fail(storeCtx, jobID, message); storeErr != nil {
		logger.Error("failed to persist job failure", logging.Error(storeErr))
	}
}

func (r *Runner) validate() error {
	missing := make([]string, 0)
	if r.store == nil {
		missing = append(missing, "job store")
	}
	if r.stages.Script == nil {
		missing = append(missing, StageScript)
	}
	if r.stages.Speech == nil {
		missing = append(missing, StageSpeech)
	}
	if r.stages.Captions == nil {
		missing = append(missing, StageCaptions)
	}
	if r.stages.Keywords == nil {
		missing = append(missing, StageKeywords)
	}
	if r.stages.Footage == nil {
		missing = append(missing, StageFootage)
	}
	if r.stages.Renderer == nil {
		missing = append(missing, StageRender)
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate", "missing "+strings.Join(missing, ", "), nil)
	}
	if strings.TrimSpace(r.cfg.WorkDir) == "" {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate", "work directory not set", nil)
	}
	return nil
}

func (r *Runner) acquireLock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(r.cfg.LockPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}
	lock := flock.New(r.cfg.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrBusy, "pipeline", "lock", "another generation is running", nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release pipeline lock", logging.Error(err))
		}
	}, nil
}

func readCaptions(path string) ([]captions.Caption, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageCaptions, "open captions", path, err)
	}
	defer file.Close()
	caps, err := captions.ParseSRT(file)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageCaptions, "parse captions", path, err)
	}
	return caps, nil
}

type timelineFile struct {
	TotalDuration float64                   `json:"total_duration"`
	Query         timeline.QueryTimeline    `json:"query"`
	Resource      timeline.ResourceTimeline `json:"resource"`
	Merged        timeline.ResourceTimeline `json:"merged"`
}

func writeTimelines(path string, total float64, qt timeline.QueryTimeline, rt, merged timeline.ResourceTimeline) error {
	data, err := json.MarshalIndent(timelineFile{TotalDuration: total, Query: qt, Resource: rt, Merged: merged}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode timelines: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write timelines: %w", err)
	}
	return nil
}
