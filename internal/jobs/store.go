package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"factreel/internal/config"
)

// ErrNotFound is returned when a job id has no row.
var ErrNotFound = errors.New("job not found")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumns = "id, topic, status, stage, output_path, published_url, error_message, attempts, duration_seconds, unresolved_segments, created_at, updated_at"

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the job database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: func() time.Time { return time.Now().UTC() }}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts a pending job.
func (s *Store) Create(ctx context.Context, id, topic string) (*Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("job id required")
	}
	timestamp := s.now().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, topic, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, topic, StatusPending, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// UpdateStage marks the job running in stage.
func (s *Store) UpdateStage(ctx context.Context, id, stage string) error {
	return s.exec(ctx, "update stage",
		`UPDATE jobs SET status = ?, stage = ?, updated_at = ? WHERE id = ?`,
		StatusRunning, nullableString(stage), s.now().Format(timeLayout), id,
	)
}

// RecordAttempts stores how many keyword attempts the job needed.
func (s *Store) RecordAttempts(ctx context.Context, id string, attempts int) error {
	return s.exec(ctx, "record attempts",
		`UPDATE jobs SET attempts = ?, updated_at = ? WHERE id = ?`,
		attempts, s.now().Format(timeLayout), id,
	)
}

// Complete marks the job completed with its results.
func (s *Store) Complete(ctx context.Context, id string, result Completion) error {
	return s.exec(ctx, "complete job",
		`UPDATE jobs
         SET status = ?, stage = NULL, output_path = ?, published_url = ?, duration_seconds = ?,
             unresolved_segments = ?, error_message = NULL, updated_at = ?
         WHERE id = ?`,
		StatusCompleted,
		nullableString(result.OutputPath),
		nullableString(result.PublishedURL),
		result.DurationSeconds,
		result.UnresolvedSegments,
		s.now().Format(timeLayout),
		id,
	)
}

// Fail marks the job failed, keeping the stage it failed in.
func (s *Store) Fail(ctx context.Context, id, message string) error {
	return s.exec(ctx, "fail job",
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, nullableString(message), s.now().Format(timeLayout), id,
	)
}

// Get fetches a job by id.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns the most recent jobs, newest first. A non-positive limit
// returns every job.
func (s *Store) List(ctx context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

// FailRunning marks jobs left running by a crashed process as failed and
// returns how many were changed.
func (s *Store) FailRunning(ctx context.Context, message string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE status IN (?, ?)`,
		StatusFailed, message, s.now().Format(timeLayout), StatusPending, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail running jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		status       string
		stage        sql.NullString
		outputPath   sql.NullString
		publishedURL sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Topic,
		&status,
		&stage,
		&outputPath,
		&publishedURL,
		&errorMessage,
		&job.Attempts,
		&job.DurationSeconds,
		&job.UnresolvedSegments,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.Stage = stage.String
	job.OutputPath = outputPath.String
	job.PublishedURL = publishedURL.String
	job.ErrorMessage = errorMessage.String
	job.CreatedAt = parseTime(createdRaw)
	job.UpdatedAt = parseTime(updatedRaw)
	return &job, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
