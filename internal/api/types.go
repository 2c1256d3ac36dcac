package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Video describes a persisted generation job.
type Video struct {
	ID                 string  `json:"id"`
	Topic              string  `json:"topic"`
	Status             string  `json:"status"`
	Stage              string  `json:"stage,omitempty"`
	OutputPath         string  `json:"outputPath,omitempty"`
	PublishedURL       string  `json:"publishedUrl,omitempty"`
	ErrorMessage       string  `json:"errorMessage,omitempty"`
	KeywordAttempts    int     `json:"keywordAttempts"`
	DurationSeconds    float64 `json:"durationSeconds,omitempty"`
	UnresolvedSegments int     `json:"unresolvedSegments"`
	CreatedAt          string  `json:"createdAt,omitempty"`
	UpdatedAt          string  `json:"updatedAt,omitempty"`
}

// VideoListResponse wraps a list of jobs.
type VideoListResponse struct {
	Videos []Video `json:"videos"`
}

// GenerateRequest is the body of POST /api/videos.
type GenerateRequest struct {
	Topic string `json:"topic"`
}

// GenerateResponse reports a finished generation.
type GenerateResponse struct {
	ID                 string  `json:"id"`
	OutputPath         string  `json:"outputPath"`
	PublishedURL       string  `json:"publishedUrl,omitempty"`
	DurationSeconds    float64 `json:"durationSeconds"`
	Segments           int     `json:"segments"`
	UnresolvedSegments int     `json:"unresolvedSegments"`
	KeywordAttempts    int     `json:"keywordAttempts"`
}

// ErrorResponse is returned for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
