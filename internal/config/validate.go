package config

import (
	"errors"
	"fmt"

	"factreel/internal/language"
)

// Validate ensures the configuration is usable. Credentials are not required
// here; commands that need them check at construction time.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateKeywords(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateFootage(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderOpenAI:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderOpenRouter, ProviderOpenAI, c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateKeywords() error {
	if c.Keywords.MaxAttempts <= 0 {
		return errors.New("keywords.max_attempts must be positive")
	}
	if c.Keywords.RetryBaseDelaySeconds < 0 {
		return errors.New("keywords.retry_base_delay_seconds must not be negative")
	}
	if c.Keywords.RetryMaxDelaySeconds < c.Keywords.RetryBaseDelaySeconds {
		return errors.New("keywords.retry_max_delay_seconds must be at least keywords.retry_base_delay_seconds")
	}
	if c.Keywords.TimeoutSeconds <= 0 {
		return errors.New("keywords.timeout_seconds must be positive")
	}
	if c.Keywords.ContiguityTolerance < 0 {
		return errors.New("keywords.contiguity_tolerance must not be negative")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if c.Captions.MaxChars <= 0 {
		return errors.New("captions.max_chars must be positive")
	}
	if _, err := language.Normalize(c.Captions.Language); err != nil {
		return fmt.Errorf("captions.language: %w", err)
	}
	return nil
}

func (c *Config) validateFootage() error {
	switch c.Footage.Orientation {
	case OrientationLandscape, OrientationPortrait:
	default:
		return fmt.Errorf("footage.orientation must be %q or %q, got %q", OrientationLandscape, OrientationPortrait, c.Footage.Orientation)
	}
	if c.Footage.MinClipSeconds < 0 {
		return errors.New("footage.min_clip_seconds must not be negative")
	}
	if c.Footage.PerPage <= 0 || c.Footage.PerPage > 80 {
		return errors.New("footage.per_page must be between 1 and 80")
	}
	if c.Footage.TimeoutSeconds <= 0 {
		return errors.New("footage.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.FPS <= 0 {
		return errors.New("render.fps must be positive")
	}
	if c.Render.FontSize <= 0 {
		return errors.New("render.font_size must be positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.StageTimeoutSeconds <= 0 {
		return errors.New("pipeline.stage_timeout_seconds must be positive")
	}
	if c.Pipeline.MinFreeSpaceGiB < 0 {
		return errors.New("pipeline.min_free_space_gib must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
