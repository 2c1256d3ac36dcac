package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"factreel/internal/config"
	"factreel/internal/services/whisperx"
)

// Requirements lists the binaries the pipeline executes for cfg.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Render.FFmpegBinary,
			Description: "Required for audio extraction and rendering",
		},
		{
			Name:        "FFprobe",
			Command:     ResolveFFprobe(cfg.Render.FFprobeBinary, cfg.Render.FFmpegBinary),
			Description: "Required for render verification",
		},
		{
			Name:        "edge-tts",
			Command:     cfg.Speech.Binary,
			Description: "Required for narration synthesis",
		},
		{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Required for WhisperX caption alignment (skippable with --captions)",
		},
	}
}

// ResolveFFprobe returns the ffprobe binary to execute. An explicitly
// configured path wins. When ffprobe is left at its bare default and ffmpeg
// is configured as a path, an executable ffprobe next to it is preferred so
// both tools come from the same build.
func ResolveFFprobe(ffprobe, ffmpeg string) string {
	ffprobe = strings.TrimSpace(ffprobe)
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	if ffprobe != "ffprobe" {
		return ffprobe
	}
	ffmpeg = strings.TrimSpace(ffmpeg)
	if ffmpeg == "" || !strings.ContainsRune(ffmpeg, os.PathSeparator) {
		return ffprobe
	}
	resolved, err := exec.LookPath(ffmpeg)
	if err != nil {
		return ffprobe
	}
	candidate := filepath.Join(filepath.Dir(resolved), executableName("ffprobe"))
	if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
		return candidate
	}
	return ffprobe
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
