// Package api exposes the HTTP surface used by `factreel serve`.
//
// Routes are served by a gin engine:
//
//	POST /api/videos       run a generation for {"topic": "..."}
//	GET  /api/videos       list recent jobs (?limit=N)
//	GET  /api/videos/:id   fetch one job
//	GET  /healthz          liveness
//
// Generation requests run synchronously. The pipeline lock serializes them,
// so a second request while one is running receives 409 Conflict.
//
// DTOs use camelCase JSON tags and RFC3339 timestamps with milliseconds.
// When a bearer token is configured every /api route requires it.
package api
