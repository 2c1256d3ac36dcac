// Package pipeline turns a topic into a narrated video.
//
// Runner executes the stages strictly in order: script, speech, captions,
// keywords, footage, merge, render and publish. Every stage runs under its own
// deadline with the job id and stage name attached to the context, so log
// lines and errors identify where a job stopped. The first failing stage
// aborts the job, records the failure in the job store, and is returned to
// the caller; no partial video is surfaced.
//
// A file lock in the work directory keeps two generations from sharing a
// work tree. A second caller receives services.ErrBusy instead of waiting.
//
// Build wires the concrete collaborators from configuration; tests construct
// a Runner directly with fakes.
package pipeline
