// Package main hosts the factreel CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the pipeline
// from it and exposes generation, job history, diagnostics, configuration
// scaffolding and the optional HTTP server. Heavy lifting lives in the
// internal packages; commands here only wire and present.
package main
