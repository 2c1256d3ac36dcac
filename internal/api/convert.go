package api

import (
	"factreel/internal/jobs"
	"factreel/internal/pipeline"
)

// FromJob converts a job row to its API representation.
func FromJob(job *jobs.Job) Video {
	if job == nil {
		return Video{}
	}
	dto := Video{
		ID:                 job.ID,
		Topic:              job.Topic,
		Status:             string(job.Status),
		Stage:              job.Stage,
		OutputPath:         job.OutputPath,
		PublishedURL:       job.PublishedURL,
		ErrorMessage:       job.ErrorMessage,
		KeywordAttempts:    job.Attempts,
		DurationSeconds:    job.DurationSeconds,
		UnresolvedSegments: job.UnresolvedSegments,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts job rows into API DTOs. The result is never nil so the
// list endpoint always encodes an array.
func FromJobs(items []*jobs.Job) []Video {
	out := make([]Video, 0, len(items))
	for _, item := range items {
		out = append(out, FromJob(item))
	}
	return out
}

// FromResult converts a pipeline result.
func FromResult(res pipeline.Result) GenerateResponse {
	return GenerateResponse{
		ID:                 res.JobID,
		OutputPath:         res.OutputPath,
		PublishedURL:       res.PublishedURL,
		DurationSeconds:    res.DurationSeconds,
		Segments:           res.Segments,
		UnresolvedSegments: res.UnresolvedSegments,
		KeywordAttempts:    res.KeywordAttempts,
	}
}
