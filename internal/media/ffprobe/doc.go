// Package ffprobe provides a typed wrapper around ffprobe JSON output, used to
// verify rendered videos.
//
// Inspect executes ffprobe and returns the parsed Result; InspectWith accepts
// a command runner so callers can substitute canned output in tests. Helper
// methods on Result give stream counts, frame size, duration and size.
package ffprobe
