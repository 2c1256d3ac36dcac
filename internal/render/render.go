package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"factreel/internal/captions"
	"factreel/internal/fileutil"
	"factreel/internal/logging"
	"factreel/internal/media/ffprobe"
	"factreel/internal/services"
	"factreel/internal/timeline"
)

// durationTolerance is how far the rendered duration may drift from the
// narration before a warning is logged.
const durationTolerance = 1.0

// HTTPDoer describes the HTTP client used for clip downloads.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls encoding.
type Config struct {
	FFmpegBinary  string
	FFprobeBinary string
	Width         int
	Height        int
	FPS           int
	FontSize      int
}

// Input is one render request.
type Input struct {
	Timeline      timeline.ResourceTimeline
	AudioPath     string
	Captions      []captions.Caption
	TotalDuration float64
	WorkDir       string
	OutputPath    string
}

// Renderer produces the final video file.
type Renderer struct {
	cfg    Config
	http   HTTPDoer
	run    func(ctx context.Context, name string, args ...string) error
	probe  ffprobe.Runner
	logger *slog.Logger
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithHTTPClient overrides the download client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(r *Renderer) {
		if doer != nil {
			r.http = doer
		}
	}
}

// WithCommandRunner overrides ffmpeg execution.
func WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) Option {
	return func(r *Renderer) {
		if run != nil {
			r.run = run
		}
	}
}

// WithProbeRunner overrides ffprobe execution.
func WithProbeRunner(run ffprobe.Runner) Option {
	return func(r *Renderer) {
		if run != nil {
			r.probe = run
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logging.NewComponentLogger(logger, "render")
	}
}

// New constructs a Renderer with defaults applied.
func New(cfg Config, opts ...Option) *Renderer {
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(cfg.FFprobeBinary) == "" {
		cfg.FFprobeBinary = "ffprobe"
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1920, 1080
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 25
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = 18
	}
	r := &Renderer{
		cfg:    cfg,
		http:   &http.Client{Timeout: 5 * time.Minute},
		run:    execRun,
		probe:  ffprobe.ExecRunner,
		logger: logging.NewComponentLogger(nil, "render"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Render writes the composed video to in.OutputPath and returns that path.
func (r *Renderer) Render(ctx context.Context, in Input) (string, error) {
	if len(in.Timeline) == 0 {
		return "", services.Wrap(services.ErrValidation, "render", "plan", "resource timeline is empty", nil)
	}
	if strings.TrimSpace(in.AudioPath) == "" || strings.TrimSpace(in.OutputPath) == "" {
		return "", services.Wrap(services.ErrValidation, "render", "plan", "audio and output paths required", nil)
	}
	workDir := in.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(in.OutputPath)
	}
	if err := os.MkdirAll(filepath.Join(workDir, "clips"), 0o755); err != nil {
		return "", fmt.Errorf("render: ensure clip dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
		return "", fmt.Errorf("render: ensure output dir: %w", err)
	}

	clips, err := r.downloadClips(ctx, in.Timeline, filepath.Join(workDir, "clips"))
	if err != nil {
		return "", err
	}

	srtPath := ""
	if len(in.Captions) > 0 {
		srtPath = filepath.Join(workDir, "captions.srt")
		if err := writeSRT(srtPath, in.Captions); err != nil {
			return "", fmt.Errorf("render: write captions: %w", err)
		}
	}

	args := r.buildArgs(in, clips, srtPath)
	r.logger.Info("rendering video",
		logging.Int("segments", len(in.Timeline)),
		logging.Int("clips", len(clips)),
		logging.Float64("duration_seconds", in.TotalDuration),
		logging.String("output", in.OutputPath),
	)
	if err := r.run(ctx, r.cfg.FFmpegBinary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "", err)
	}

	if err := r.verify(ctx, in); err != nil {
		return "", err
	}
	return in.OutputPath, nil
}

func (r *Renderer) verify(ctx context.Context, in Input) error {
	result, err := ffprobe.InspectWith(ctx, r.probe, r.cfg.FFprobeBinary, in.OutputPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "verify output", in.OutputPath, err)
	}
	if result.VideoStreamCount() == 0 {
		return services.Wrap(services.ErrValidation, "render", "verify output", "rendered file has no video stream", nil)
	}
	got := result.DurationSeconds()
	if in.TotalDuration > 0 && (math.IsNaN(got) || math.Abs(got-in.TotalDuration) > durationTolerance) {
		logging.WarnWithContext(r.logger, "rendered duration differs from narration", "render_duration_mismatch",
			logging.Float64("expected_seconds", in.TotalDuration),
			logging.Float64("actual_seconds", got),
			logging.String(logging.FieldImpact, "video may end early or hold the last frame"),
		)
	}
	return nil
}

// downloadClips fetches each distinct resolved URL once, keyed by URL.
func (r *Renderer) downloadClips(ctx context.Context, rt timeline.ResourceTimeline, dir string) (map[string]string, error) {
	clips := make(map[string]string)
	for _, entry := range rt {
		if !entry.Resolved() {
			continue
		}
		url := entry.Resource.URL
		if _, ok := clips[url]; ok {
			continue
		}
		dest := filepath.Join(dir, fmt.Sprintf("clip_%03d.mp4", len(clips)))
		if err := r.download(ctx, url, dest); err != nil {
			return nil, err
		}
		clips[url] = dest
	}
	return clips, nil
}

func (r *Renderer) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("render: build download request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrServiceFailure, "render", "download clip", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrServiceFailure, "render", "download clip", url, fmt.Errorf("http %d", resp.StatusCode))
	}

	if _, err := fileutil.WriteAtomic(dest, resp.Body, resp.ContentLength); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrServiceFailure, "render", "save clip", url, err)
	}
	return nil
}

// buildArgs assembles the ffmpeg invocation: one input per timeline entry
// (looped clip or lavfi black source) normalized to the frame size, a concat,
// the optional caption burn-in, and the narration audio.
func (r *Renderer) buildArgs(in Input, clips map[string]string, srtPath string) []string {
	parts := make([]*ffmpeg.Stream, 0, len(in.Timeline))
	for _, entry := range in.Timeline {
		dur := formatSeconds(entry.Segment.Duration())
		if !entry.Resolved() {
			source := fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s", r.cfg.Width, r.cfg.Height, r.cfg.FPS, dur)
			parts = append(parts, ffmpeg.Input(source, ffmpeg.KwArgs{"f": "lavfi"}).
				Filter("setsar", ffmpeg.Args{"1"}))
			continue
		}
		clip := ffmpeg.Input(clips[entry.Resource.URL], ffmpeg.KwArgs{"stream_loop": "-1"})
		parts = append(parts, clip.
			Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": dur}).
			Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"}).
			Filter("scale", ffmpeg.Args{strconv.Itoa(r.cfg.Width), strconv.Itoa(r.cfg.Height)}, ffmpeg.KwArgs{"force_original_aspect_ratio": "increase"}).
			Filter("crop", ffmpeg.Args{strconv.Itoa(r.cfg.Width), strconv.Itoa(r.cfg.Height)}).
			Filter("fps", ffmpeg.Args{strconv.Itoa(r.cfg.FPS)}).
			Filter("setsar", ffmpeg.Args{"1"}))
	}

	video := ffmpeg.Concat(parts)
	if srtPath != "" {
		video = video.Filter("subtitles", ffmpeg.Args{srtPath}, ffmpeg.KwArgs{
			"force_style": fmt.Sprintf("Fontsize=%d,Alignment=2,Outline=2,BorderStyle=1", r.cfg.FontSize),
		})
	}
	audio := ffmpeg.Input(in.AudioPath).Audio()

	outArgs := ffmpeg.KwArgs{
		"c:v":      "libx264",
		"preset":   "veryfast",
		"pix_fmt":  "yuv420p",
		"c:a":      "aac",
		"b:a":      "192k",
		"movflags": "+faststart",
	}
	if in.TotalDuration > 0 {
		outArgs["t"] = formatSeconds(in.TotalDuration)
	}
	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, in.OutputPath, outArgs).
		OverWriteOutput().
		GetArgs()
}

func writeSRT(path string, caps []captions.Caption) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := captions.WriteSRT(file, caps); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func execRun(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output), 800))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
