// Package whisperx extracts timed captions from narration audio with WhisperX.
//
// The narration is converted to mono 16kHz WAV with ffmpeg, transcribed with
// `uvx whisperx` to JSON, and the word timings are grouped into short caption
// lines. Configuration options (model, CUDA, language, caption width) are
// passed via Config. The command runner is injectable for tests.
package whisperx
