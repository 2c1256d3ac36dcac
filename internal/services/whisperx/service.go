package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"factreel/internal/captions"
	"factreel/internal/services"
)

// Service turns narration audio into timed captions with WhisperX.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	return &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Captions transcribes audioPath and groups the word timings into captions of
// at most Config.MaxChars characters. Intermediate files are written to workDir.
func (s *Service) Captions(ctx context.Context, audioPath, workDir string) ([]captions.Caption, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "captions", "whisperx", "audio path required", nil)
	}
	if workDir == "" {
		workDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("captions: ensure work dir: %w", err)
	}

	wavPath := filepath.Join(workDir, "narration_16k.wav")
	if err := s.run(ctx, s.ffmpegBinary, buildFFmpegExtractArgs(audioPath, wavPath)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "captions", "ffmpeg extract", "", err)
	}
	if err := s.run(ctx, UVXCommand, s.buildArgs(wavPath, workDir)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "captions", "whisperx", "", err)
	}

	jsonPath := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))+".json")
	segments, err := LoadSegments(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "captions", "load transcript", jsonPath, err)
	}
	caps := captions.GroupWords(WordsFromSegments(segments), s.cfg.MaxChars)
	if len(caps) == 0 {
		return nil, services.Wrap(services.ErrValidation, "captions", "whisperx", "transcript contains no words", nil)
	}
	return caps, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 32)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
		"--vad_method", VADMethodSilero,
		"--language", s.cfg.Language,
	)

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Word represents a single word with timing from WhisperX output. Alignment
// can fail for numerals and symbols, leaving Start and End unset.
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// whisperXPayload is the JSON structure from WhisperX output.
type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// WordsFromSegments flattens segments into timed words. Segments without word
// alignment have their duration spread across their words by character count.
func WordsFromSegments(segments []Segment) []captions.Word {
	var words []captions.Word
	for _, seg := range segments {
		if len(seg.Words) == 0 {
			words = append(words, spreadSegment(seg)...)
			continue
		}
		for _, w := range seg.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			word := captions.Word{Text: text}
			if w.Start != nil && w.End != nil {
				word.Start = *w.Start
				word.End = *w.End
			}
			words = append(words, word)
		}
	}
	return words
}

func spreadSegment(seg Segment) []captions.Word {
	fields := strings.Fields(seg.Text)
	if len(fields) == 0 {
		return nil
	}
	total := 0
	for _, f := range fields {
		total += utf8.RuneCountInString(f)
	}
	span := seg.End - seg.Start
	out := make([]captions.Word, 0, len(fields))
	cursor := seg.Start
	for i, f := range fields {
		end := cursor + span*float64(utf8.RuneCountInString(f))/float64(total)
		if i == len(fields)-1 {
			end = seg.End
		}
		out = append(out, captions.Word{Text: f, Start: cursor, End: end})
		cursor = end
	}
	return out
}
