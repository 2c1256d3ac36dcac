package config

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"

	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"
)

const (
	defaultConfigPath                 = "~/.config/factreel/config.toml"
	defaultWorkDir                    = "~/.local/share/factreel/work"
	defaultDataDir                    = "~/.local/share/factreel"
	defaultLogDir                     = "~/.local/share/factreel/logs"
	defaultOpenRouterBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel            = "openai/gpt-4o"
	defaultOpenAIModel                = "gpt-4o"
	defaultLLMReferer                 = "https://github.com/factreel/factreel"
	defaultLLMTitle                   = "factreel"
	defaultLLMTimeoutSeconds          = 60
	defaultLLMRetryMaxAttempts        = 1
	defaultKeywordMaxAttempts         = 8
	defaultKeywordRetryBaseDelay      = 1.0
	defaultKeywordRetryMaxDelay       = 10.0
	defaultKeywordTimeoutSeconds      = 300
	defaultKeywordContiguityTolerance = 0.05
	defaultSpeechBinary               = "edge-tts"
	defaultSpeechVoice                = "en-AU-WilliamNeural"
	defaultCaptionMaxChars            = 15
	defaultWhisperXModel              = "base"
	defaultCaptionLanguage            = "en"
	defaultPexelsBaseURL              = "https://api.pexels.com/videos/search"
	defaultMinClipSeconds             = 15
	defaultPexelsPerPage              = 15
	defaultPexelsTimeoutSeconds       = 30
	defaultOutputFile                 = "rendered_video.mp4"
	defaultFFmpegBinary               = "ffmpeg"
	defaultFFprobeBinary              = "ffprobe"
	defaultRenderFPS                  = 25
	defaultRenderFontSize             = 18
	defaultNtfyTimeoutSeconds         = 10
	defaultStageTimeoutSeconds        = 600
	defaultMinFreeSpaceGiB            = 2
	defaultAPIBind                    = "127.0.0.1:7788"
	defaultLogFormat                  = "console"
	defaultLogLevel                   = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		LLM: LLM{
			Provider:         ProviderOpenRouter,
			Referer:          defaultLLMReferer,
			Title:            defaultLLMTitle,
			TimeoutSeconds:   defaultLLMTimeoutSeconds,
			RetryMaxAttempts: defaultLLMRetryMaxAttempts,
		},
		Keywords: Keywords{
			MaxAttempts:           defaultKeywordMaxAttempts,
			RetryBaseDelaySeconds: defaultKeywordRetryBaseDelay,
			RetryMaxDelaySeconds:  defaultKeywordRetryMaxDelay,
			TimeoutSeconds:        defaultKeywordTimeoutSeconds,
			StrictContiguity:      true,
			ContiguityTolerance:   defaultKeywordContiguityTolerance,
		},
		Speech: Speech{
			Binary: defaultSpeechBinary,
			Voice:  defaultSpeechVoice,
		},
		Captions: Captions{
			MaxChars:      defaultCaptionMaxChars,
			WhisperXModel: defaultWhisperXModel,
			Language:      defaultCaptionLanguage,
		},
		Footage: Footage{
			BaseURL:        defaultPexelsBaseURL,
			Orientation:    OrientationLandscape,
			MinClipSeconds: defaultMinClipSeconds,
			PerPage:        defaultPexelsPerPage,
			TimeoutSeconds: defaultPexelsTimeoutSeconds,
		},
		Render: Render{
			OutputFile:    defaultOutputFile,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			FPS:           defaultRenderFPS,
			FontSize:      defaultRenderFontSize,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Pipeline: Pipeline{
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
			MinFreeSpaceGiB:     defaultMinFreeSpaceGiB,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
