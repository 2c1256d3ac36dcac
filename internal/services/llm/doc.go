// Package llm provides an OpenRouter-compatible chat client used as the default
// text-completion service.
//
// This package is used by:
//   - Script stage: turn a topic into a narration script (CompleteJSON)
//   - Keywords stage: produce the timed keyword timeline (Complete)
//   - Doctor/preflight: verify the API key and model (HealthCheck)
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title,
// temperature, timeout. Any OpenAI-compatible chat completions endpoint works.
//
// # Retry Behaviour
//
// Transport retries are disabled by default (one attempt). When enabled via
// WithRetryMaxAttempts the client retries HTTP 408/429/5xx, empty content and
// network timeouts with exponential backoff (base 1s, max 10s). Context
// cancellation aborts retries immediately. Non-success statuses surface as
// *StatusError.
//
// # Lenient decoding
//
// DecodeJSON parses model output directly and falls back to stripping code
// fences and slicing the outermost object or array.
package llm
