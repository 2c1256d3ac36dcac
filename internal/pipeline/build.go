package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"factreel/internal/config"
	"factreel/internal/deps"
	"factreel/internal/footage"
	"factreel/internal/keywords"
	"factreel/internal/language"
	"factreel/internal/logging"
	"factreel/internal/notifications"
	"factreel/internal/render"
	"factreel/internal/script"
	"factreel/internal/services"
	"factreel/internal/services/llm"
	"factreel/internal/services/openai"
	"factreel/internal/services/pexels"
	"factreel/internal/services/tts"
	"factreel/internal/services/whisperx"
	"factreel/internal/storage"
)

// TextService is the completion interface shared by the script and keyword
// stages.
type TextService interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewTextService selects the completion client for cfg.LLM.Provider.
func NewTextService(cfg *config.Config, logger *slog.Logger) (TextService, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		client, err := openai.NewClient(openai.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Temperature:    cfg.LLM.Temperature,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "text service", "", err)
		}
		return client, nil
	default:
		if cfg.LLM.APIKey == "" {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "text service", "llm.api_key (or OPENROUTER_API_KEY) is required", nil)
		}
		return llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			Temperature:    cfg.LLM.Temperature,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		},
			llm.WithRetryMaxAttempts(cfg.LLM.RetryMaxAttempts),
			llm.WithLogger(logging.NewComponentLogger(logger, "llm")),
		), nil
	}
}

// Build wires every stage from configuration.
func Build(ctx context.Context, cfg *config.Config, store JobStore, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build", "config is nil", nil)
	}
	text, err := NewTextService(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Footage.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build", "footage.api_key (or PEXELS_API_KEY) is required", nil)
	}

	width, height := cfg.FrameSize()
	stages := Stages{
		Script: script.NewGenerator(text, logger),
		Speech: tts.New(tts.Config{Binary: cfg.Speech.Binary, Voice: cfg.Speech.Voice}),
		Captions: whisperx.NewService(whisperx.Config{
			Model:       cfg.Captions.WhisperXModel,
			CUDAEnabled: cfg.Captions.CUDAEnabled,
			Language:    cfg.Captions.Language,
			MaxChars:    cfg.Captions.MaxChars,
		}, cfg.Render.FFmpegBinary),
		Keywords: keywords.NewGenerator(text, keywords.Config{
			MaxAttempts:         cfg.Keywords.MaxAttempts,
			RetryBaseDelay:      seconds(cfg.Keywords.RetryBaseDelaySeconds),
			RetryMaxDelay:       seconds(cfg.Keywords.RetryMaxDelaySeconds),
			Timeout:             time.Duration(cfg.Keywords.TimeoutSeconds) * time.Second,
			StrictContiguity:    cfg.Keywords.StrictContiguity,
			ContiguityTolerance: cfg.Keywords.ContiguityTolerance,
		}, keywords.WithLogger(logger)),
		Footage: footage.NewResolver(pexels.NewClient(pexels.Config{
			APIKey:         cfg.Footage.APIKey,
			BaseURL:        cfg.Footage.BaseURL,
			Orientation:    cfg.Footage.Orientation,
			PerPage:        cfg.Footage.PerPage,
			TimeoutSeconds: cfg.Footage.TimeoutSeconds,
		}), footage.Config{
			Orientation:    cfg.Footage.Orientation,
			MinClipSeconds: cfg.Footage.MinClipSeconds,
		}, logger),
		Notifier: notifications.NewService(cfg),
		Renderer: render.New(render.Config{
			FFmpegBinary:  cfg.Render.FFmpegBinary,
			FFprobeBinary: deps.ResolveFFprobe(cfg.Render.FFprobeBinary, cfg.Render.FFmpegBinary),
			Width:         width,
			Height:        height,
			FPS:           cfg.Render.FPS,
			FontSize:      cfg.Render.FontSize,
		}, render.WithLogger(logger)),
	}
	if cfg.PublishEnabled() {
		publisher, err := storage.NewPublisher(ctx, storage.Config{
			Bucket:       cfg.Storage.S3Bucket,
			Prefix:       cfg.Storage.S3Prefix,
			Region:       cfg.Storage.Region,
			Profile:      cfg.Storage.Profile,
			Endpoint:     cfg.Storage.Endpoint,
			UsePathStyle: cfg.Storage.UsePathStyle,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build", "storage", err)
		}
		stages.Publisher = publisher
	}

	return NewRunner(Config{
		WorkDir:      cfg.Paths.WorkDir,
		LockPath:     cfg.LockPath(),
		OutputFile:   cfg.Render.OutputFile,
		StageTimeout: time.Duration(cfg.Pipeline.StageTimeoutSeconds) * time.Second,
	}, stages, store, logger), nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Describe lists the wired collaborators for diagnostics.
func Describe(cfg *config.Config) []string {
	lines := []string{
		fmt.Sprintf("text service: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model),
		fmt.Sprintf("speech: %s voice %s", cfg.Speech.Binary, cfg.Speech.Voice),
		fmt.Sprintf("captions: whisperx %s, %s, %d chars", cfg.Captions.WhisperXModel, language.DisplayName(cfg.Captions.Language), cfg.Captions.MaxChars),
		fmt.Sprintf("footage: pexels %s, min %ds", cfg.Footage.Orientation, cfg.Footage.MinClipSeconds),
	}
	if cfg.Notifications.NtfyTopic != "" {
		lines = append(lines, "notifications: "+cfg.Notifications.NtfyTopic)
	}
	if cfg.PublishEnabled() {
		lines = append(lines, fmt.Sprintf("publish: s3://%s/%s", cfg.Storage.S3Bucket, cfg.Storage.S3Prefix))
	}
	return lines
}
