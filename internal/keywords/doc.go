// Package keywords produces the timed footage-search timeline for a narration.
//
// Generator asks the text service for a keyword timeline, repairs and decodes
// the reply, and accepts it only when the last segment ends exactly where the
// captions end (optionally also requiring contiguous segments from zero).
// Unaccepted replies are retried with exponential backoff up to MaxAttempts;
// a failure of the text service itself is returned immediately.
package keywords
