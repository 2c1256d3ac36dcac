// Package jobs records video generation history in SQLite.
//
// Each generation is one row in the jobs table keyed by a UUID. The pipeline
// creates the row, advances its stage as work proceeds, and finally marks it
// completed or failed. The CLI and HTTP surface read the same table for the
// history and show views.
//
// The schema is applied by embedded, versioned migrations on Open. The
// database runs in WAL mode with a busy timeout so readers never block the
// running pipeline.
package jobs
