package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working, data and log directories.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// LLM contains text-completion service settings shared by the script and
// keyword stages.
type LLM struct {
	Provider         string  `toml:"provider"`
	APIKey           string  `toml:"api_key"`
	BaseURL          string  `toml:"base_url"`
	Model            string  `toml:"model"`
	Referer          string  `toml:"referer"`
	Title            string  `toml:"title"`
	Temperature      float64 `toml:"temperature"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
	RetryMaxAttempts int     `toml:"retry_max_attempts"`
}

// Keywords controls the coverage-driven keyword timeline loop.
type Keywords struct {
	MaxAttempts           int     `toml:"max_attempts"`
	RetryBaseDelaySeconds float64 `toml:"retry_base_delay_seconds"`
	RetryMaxDelaySeconds  float64 `toml:"retry_max_delay_seconds"`
	TimeoutSeconds        int     `toml:"timeout_seconds"`
	StrictContiguity      bool    `toml:"strict_contiguity"`
	ContiguityTolerance   float64 `toml:"contiguity_tolerance"`
}

// Speech contains text-to-speech settings.
type Speech struct {
	Binary string `toml:"binary"`
	Voice  string `toml:"voice"`
}

// Captions contains caption extraction settings.
type Captions struct {
	MaxChars      int    `toml:"max_chars"`
	WhisperXModel string `toml:"whisperx_model"`
	Language      string `toml:"language"`
	CUDAEnabled   bool   `toml:"cuda_enabled"`
}

// Footage contains stock-footage lookup settings.
type Footage struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Orientation    string `toml:"orientation"`
	MinClipSeconds int    `toml:"min_clip_seconds"`
	PerPage        int    `toml:"per_page"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Render contains composition settings.
type Render struct {
	OutputFile    string `toml:"output_file"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	FPS           int    `toml:"fps"`
	FontSize      int    `toml:"font_size"`
}

// Storage contains optional S3 publishing settings. Publishing is disabled
// while S3Bucket is empty.
type Storage struct {
	S3Bucket     string `toml:"s3_bucket"`
	S3Prefix     string `toml:"s3_prefix"`
	Region       string `toml:"region"`
	Profile      string `toml:"profile"`
	Endpoint     string `toml:"endpoint"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// Notifications contains ntfy settings. Notifications are disabled while
// NtfyTopic is empty.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Pipeline contains orchestration limits.
type Pipeline struct {
	StageTimeoutSeconds int `toml:"stage_timeout_seconds"`
	MinFreeSpaceGiB     int `toml:"min_free_space_gib"`
}

// API contains HTTP surface settings.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for factreel.
//
// Configuration sections by subsystem:
//   - Paths: per-job work files, job database, logs
//   - LLM: text-completion provider used for scripts and keywords
//   - Keywords: retry and acceptance policy for keyword timelines
//   - Speech, Captions: narration synthesis and caption timing
//   - Footage: stock video lookup
//   - Render: ffmpeg composition
//   - Storage: optional S3 publishing
//   - Notifications: optional ntfy alerts when a job finishes
//   - Pipeline, API, Logging: orchestration, HTTP surface, log output
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Keywords      Keywords      `toml:"keywords"`
	Speech        Speech        `toml:"speech"`
	Captions      Captions      `toml:"captions"`
	Footage       Footage       `toml:"footage"`
	Render        Render        `toml:"render"`
	Storage       Storage       `toml:"storage"`
	Notifications Notifications `toml:"notifications"`
	Pipeline      Pipeline      `toml:"pipeline"`
	API           API           `toml:"api"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("factreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work, data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the job history database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "factreel.db")
}

// LockPath returns the pipeline lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.WorkDir, "factreel.lock")
}

// PublishEnabled reports whether finished videos are uploaded to S3.
func (c *Config) PublishEnabled() bool {
	return strings.TrimSpace(c.Storage.S3Bucket) != ""
}

// FrameSize returns the output width and height for the configured orientation.
func (c *Config) FrameSize() (int, int) {
	if c.Footage.Orientation == OrientationPortrait {
		return 1080, 1920
	}
	return 1920, 1080
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
