package keywords

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"factreel/internal/captions"
	"factreel/internal/logging"
	"factreel/internal/services"
	"factreel/internal/timeline"
)

// ErrCoverageUnattainable is returned when no response within MaxAttempts
// covered the full narration.
var ErrCoverageUnattainable = errors.New("keyword timeline coverage unattainable")

// errNotCovering marks a decoded timeline that was rejected by the acceptance check.
var errNotCovering = errors.New("timeline does not cover narration")

const (
	// coverageEpsilon only absorbs float formatting noise; the service is
	// expected to echo the caption end time verbatim.
	coverageEpsilon = 1e-6

	defaultMaxAttempts         = 8
	defaultRetryBaseDelay      = time.Second
	defaultRetryMaxDelay       = 10 * time.Second
	defaultTimeout             = 5 * time.Minute
	defaultContiguityTolerance = 0.05
)

// Completer is the text-completion service used to request keyword timelines.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config controls retry and acceptance policy.
type Config struct {
	MaxAttempts         int
	RetryBaseDelay      time.Duration
	RetryMaxDelay       time.Duration
	Timeout             time.Duration
	StrictContiguity    bool
	ContiguityTolerance float64
}

// DefaultConfig returns the standard policy: eight attempts, 1s..10s backoff,
// five minute budget, contiguity enforced.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:         defaultMaxAttempts,
		RetryBaseDelay:      defaultRetryBaseDelay,
		RetryMaxDelay:       defaultRetryMaxDelay,
		Timeout:             defaultTimeout,
		StrictContiguity:    true,
		ContiguityTolerance: defaultContiguityTolerance,
	}
}

// Generator requests keyword timelines until one covers the narration.
type Generator struct {
	completer Completer
	cfg       Config
	logger    *slog.Logger
	sleeper   func(time.Duration)
}

// Option customizes the generator.
type Option func(*Generator)

// WithLogger sets the generator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(g *Generator) {
		g.sleeper = sleeper
	}
}

// NewGenerator constructs a generator. Non-positive config values fall back
// to DefaultConfig.
func NewGenerator(completer Completer, cfg Config, opts ...Option) *Generator {
	defaults := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.RetryBaseDelay < 0 {
		cfg.RetryBaseDelay = 0
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = defaults.RetryMaxDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.ContiguityTolerance < 0 {
		cfg.ContiguityTolerance = 0
	}
	g := &Generator{
		completer: completer,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(nil, "keywords"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the first decoded keyword timeline whose final segment
// ends at the last caption's end. Keywords, segment count and ends are
// returned as decoded; starts are snapped to the previous end (see accept).
func (g *Generator) Generate(ctx context.Context, script string, caps []captions.Caption) (timeline.QueryTimeline, error) {
	qt, _, err := g.GenerateWithAttempts(ctx, script, caps)
	return qt, err
}

// GenerateWithAttempts is Generate that also reports how many completions
// were requested.
func (g *Generator) GenerateWithAttempts(ctx context.Context, script string, caps []captions.Caption) (timeline.QueryTimeline, int, error) {
	if g == nil || g.completer == nil {
		return nil, 0, services.Wrap(services.ErrConfiguration, "keywords", "generate", "text service not configured", nil)
	}
	if len(caps) == 0 {
		return nil, 0, services.Wrap(services.ErrValidation, "keywords", "generate", "caption timeline is empty", nil)
	}
	total := captions.TotalDuration(caps)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	logger := logging.WithContext(ctx, g.logger)
	userPrompt := BuildUserPrompt(script, caps)

	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, fmt.Errorf("keywords: attempt %d: %w", attempt, err)
		}

		raw, err := g.completer.Complete(ctx, SystemPrompt, userPrompt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, attempt, fmt.Errorf("keywords: attempt %d: %w", attempt, ctxErr)
			}
			return nil, attempt, services.Wrap(services.ErrServiceFailure, "keywords", "complete", fmt.Sprintf("attempt %d", attempt), err)
		}

		result := timeline.DecodeWithRepair(raw)
		switch {
		case !result.OK():
			lastErr = result.Err
			logger.Warn("keyword response could not be decoded",
				logging.String(logging.FieldEventType, "keywords_decode_failed"),
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", g.cfg.MaxAttempts),
				logging.Error(result.Err),
			)
		default:
			accepted, err := g.accept(result.Timeline, total)
			if err != nil {
				lastErr = err
				logger.Warn("keyword timeline rejected",
					logging.String(logging.FieldEventType, "keywords_not_covering"),
					logging.Int("attempt", attempt),
					logging.Int("segments", len(result.Timeline)),
					logging.Float64("timeline_end", result.Timeline.End()),
					logging.Float64("narration_end", total),
					logging.Error(err),
				)
			} else {
				logger.Info("keyword timeline accepted",
					logging.Int("attempt", attempt),
					logging.Int("segments", len(result.Timeline)),
					logging.Bool("repaired", result.Repaired),
					logging.Float64("narration_end", total),
				)
				return accepted, attempt, nil
			}
		}

		if attempt == g.cfg.MaxAttempts {
			break
		}
		if err := g.sleep(ctx, g.backoffDelay(attempt)); err != nil {
			return nil, attempt, fmt.Errorf("keywords: backoff: %w", err)
		}
	}

	return nil, g.cfg.MaxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrCoverageUnattainable, g.cfg.MaxAttempts, lastErr)
}

// accept applies the coverage check and, in strict mode, the contiguity
// check, then snaps boundaries so the timeline is exactly contiguous from 0.
// Without strict mode gaps of any size are closed by the snap; a segment the
// snap leaves empty still rejects the response.
func (g *Generator) accept(qt timeline.QueryTimeline, total float64) (timeline.QueryTimeline, error) {
	if len(qt) == 0 {
		return nil, fmt.Errorf("%w: empty timeline", errNotCovering)
	}
	if !Covers(qt, total) {
		return nil, fmt.Errorf("%w: ends at %v, narration ends at %v", errNotCovering, qt.End(), total)
	}
	if g.cfg.StrictContiguity {
		if err := timeline.ValidateContiguous(qt.Segments(), 0, g.cfg.ContiguityTolerance); err != nil {
			return nil, fmt.Errorf("%w: %w", errNotCovering, err)
		}
	}
	snapped := timeline.Snap(qt, 0)
	if err := timeline.ValidateContiguous(snapped.Segments(), 0, 0); err != nil {
		return nil, fmt.Errorf("%w: %w", errNotCovering, err)
	}
	return snapped, nil
}

// Covers reports whether the timeline's final segment ends at total.
func Covers(qt timeline.QueryTimeline, total float64) bool {
	if len(qt) == 0 {
		return false
	}
	return timeline.Near(qt.End(), total, coverageEpsilon)
}

// backoffDelay returns base * 2^(attempt-1), capped at the configured maximum.
func (g *Generator) backoffDelay(attempt int) time.Duration {
	base := g.cfg.RetryBaseDelay
	maxDelay := g.cfg.RetryMaxDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (g *Generator) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if g.sleeper != nil {
		g.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
