// Package language normalizes the caption language setting into the ISO
// 639-1 code WhisperX expects and renders display names for diagnostics.
package language
