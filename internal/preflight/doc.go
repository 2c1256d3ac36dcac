// Package preflight provides readiness checks for the external services,
// binaries and filesystem paths that factreel depends on.
//
// These checks run in two contexts:
//   - `factreel generate` and `factreel serve` call RunAll before accepting
//     work. Failing local checks abort early instead of after minutes of
//     synthesis and transcription.
//   - `factreel doctor` additionally calls the network checks (CheckLLM,
//     CheckFootage) to report credential health.
package preflight
