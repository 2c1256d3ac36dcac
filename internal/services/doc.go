// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures from the text
//     service, footage lookup and external tools stay classifiable after
//     wrapping.
//
// Integrations live in subpackages: llm and openai (text completion), pexels
// (footage lookup), tts (speech synthesis) and whisperx (caption timing).
package services
