package config

import (
	"fmt"
	"os"
	"strings"

	"factreel/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeKeywords()
	c.normalizeSpeech()
	c.normalizeCaptions()
	c.normalizeFootage()
	c.normalizeRender()
	c.normalizeStorage()
	c.normalizeNotifications()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenRouter
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		envKey := "OPENROUTER_API_KEY"
		if c.LLM.Provider == ProviderOpenAI {
			envKey = "OPENAI_API_KEY"
		}
		if value, ok := os.LookupEnv(envKey); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" && c.LLM.Provider == ProviderOpenRouter {
		c.LLM.BaseURL = defaultOpenRouterBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		if c.LLM.Provider == ProviderOpenAI {
			c.LLM.Model = defaultOpenAIModel
		} else {
			c.LLM.Model = defaultOpenRouterModel
		}
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryMaxAttempts <= 0 {
		c.LLM.RetryMaxAttempts = defaultLLMRetryMaxAttempts
	}
}

func (c *Config) normalizeKeywords() {
	if c.Keywords.MaxAttempts == 0 {
		c.Keywords.MaxAttempts = defaultKeywordMaxAttempts
	}
	if c.Keywords.TimeoutSeconds == 0 {
		c.Keywords.TimeoutSeconds = defaultKeywordTimeoutSeconds
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.Binary = strings.TrimSpace(c.Speech.Binary)
	if c.Speech.Binary == "" {
		c.Speech.Binary = defaultSpeechBinary
	}
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	if c.Speech.Voice == "" {
		c.Speech.Voice = defaultSpeechVoice
	}
}

func (c *Config) normalizeCaptions() {
	if c.Captions.MaxChars == 0 {
		c.Captions.MaxChars = defaultCaptionMaxChars
	}
	c.Captions.WhisperXModel = strings.TrimSpace(c.Captions.WhisperXModel)
	if c.Captions.WhisperXModel == "" {
		c.Captions.WhisperXModel = defaultWhisperXModel
	}
	c.Captions.Language = strings.ToLower(strings.TrimSpace(c.Captions.Language))
	if c.Captions.Language == "" {
		c.Captions.Language = defaultCaptionLanguage
	}
	if code, err := language.Normalize(c.Captions.Language); err == nil {
		c.Captions.Language = code
	}
}

func (c *Config) normalizeFootage() {
	c.Footage.APIKey = strings.TrimSpace(c.Footage.APIKey)
	if c.Footage.APIKey == "" {
		if value, ok := os.LookupEnv("PEXELS_API_KEY"); ok {
			c.Footage.APIKey = strings.TrimSpace(value)
		}
	}
	c.Footage.BaseURL = strings.TrimSpace(c.Footage.BaseURL)
	if c.Footage.BaseURL == "" {
		c.Footage.BaseURL = defaultPexelsBaseURL
	}
	c.Footage.Orientation = strings.ToLower(strings.TrimSpace(c.Footage.Orientation))
	if c.Footage.Orientation == "" {
		c.Footage.Orientation = OrientationLandscape
	}
	if c.Footage.PerPage == 0 {
		c.Footage.PerPage = defaultPexelsPerPage
	}
	if c.Footage.TimeoutSeconds == 0 {
		c.Footage.TimeoutSeconds = defaultPexelsTimeoutSeconds
	}
}

func (c *Config) normalizeRender() {
	c.Render.OutputFile = strings.TrimSpace(c.Render.OutputFile)
	if c.Render.OutputFile == "" {
		c.Render.OutputFile = defaultOutputFile
	}
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	if c.Render.FFmpegBinary == "" {
		c.Render.FFmpegBinary = defaultFFmpegBinary
	}
	c.Render.FFprobeBinary = strings.TrimSpace(c.Render.FFprobeBinary)
	if c.Render.FFprobeBinary == "" {
		c.Render.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Render.FPS == 0 {
		c.Render.FPS = defaultRenderFPS
	}
	if c.Render.FontSize == 0 {
		c.Render.FontSize = defaultRenderFontSize
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.S3Bucket = strings.TrimSpace(c.Storage.S3Bucket)
	c.Storage.S3Prefix = strings.Trim(strings.TrimSpace(c.Storage.S3Prefix), "/")
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	c.Storage.Profile = strings.TrimSpace(c.Storage.Profile)
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.StageTimeoutSeconds == 0 {
		c.Pipeline.StageTimeoutSeconds = defaultStageTimeoutSeconds
	}
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
