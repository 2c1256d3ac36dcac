// Package tts synthesizes narration audio with the edge-tts command line tool.
package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"factreel/internal/services"
)

// Defaults used when Config leaves fields empty.
const (
	DefaultBinary = "edge-tts"
	DefaultVoice  = "en-AU-WilliamNeural"
)

// Config selects the synthesis binary and voice.
type Config struct {
	Binary string
	Voice  string
}

// Synthesizer writes spoken narration to an audio file.
type Synthesizer struct {
	cfg    Config
	runner func(ctx context.Context, name string, args ...string) error
}

// New constructs a Synthesizer with defaults applied.
func New(cfg Config) *Synthesizer {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Voice) == "" {
		cfg.Voice = DefaultVoice
	}
	return &Synthesizer{cfg: cfg}
}

// WithCommandRunner overrides command execution (for testing).
func (s *Synthesizer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.runner = runner
}

// Voice reports the configured voice.
func (s *Synthesizer) Voice() string {
	return s.cfg.Voice
}

// Synthesize speaks text into dest.
func (s *Synthesizer) Synthesize(ctx context.Context, text, dest string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "speech", "synthesize", "narration text is empty", nil)
	}
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, "speech", "synthesize", "destination path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("speech: ensure output dir: %w", err)
	}
	if err := s.run(ctx, s.cfg.Binary, s.buildArgs(text, dest)...); err != nil {
		return services.Wrap(services.ErrExternalTool, "speech", "edge-tts", "", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "speech", "edge-tts", "no audio written", err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "speech", "edge-tts", "audio file is empty", nil)
	}
	return nil
}

func (s *Synthesizer) buildArgs(text, dest string) []string {
	return []string{
		"--voice", s.cfg.Voice,
		"--text", text,
		"--write-media", dest,
	}
}

func (s *Synthesizer) run(ctx context.Context, name string, args ...string) error {
	if s.runner != nil {
		return s.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
