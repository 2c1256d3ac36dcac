// Package render composes the final narrated video with ffmpeg.
//
// Renderer.Render downloads every resolved clip once and builds a single
// filtergraph. Each resolved span is looped, trimmed and scaled to the frame
// size, and each unresolved span becomes a black colour source. The spans are
// concatenated, captions are burned in from an SRT file, and the narration
// audio is muxed on top. The output is then checked with ffprobe.
//
// Command execution, HTTP downloads and probing are injectable for tests.
package render
