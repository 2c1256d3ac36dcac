package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"factreel/internal/jobs"
	"factreel/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "job-1", "Octopus facts")
	if job.Status != jobs.StatusPending || job.Topic != "Octopus facts" {
		t.Fatalf("unexpected job: %#v", job)
	}
	if job.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	// Reopening must not re-run migrations.
	store.Close()
	reopened, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(ctx, "job-1"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

func TestJobLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, store, "ok", "Honey bees")
	if err := store.UpdateStage(ctx, "ok", "captions"); err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}
	job, err := store.Get(ctx, "ok")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusRunning || job.Stage != "captions" {
		t.Fatalf("unexpected running job: %#v", job)
	}

	if err := store.RecordAttempts(ctx, "ok", 3); err != nil {
		t.Fatalf("RecordAttempts: %v", err)
	}
	if err := store.Complete(ctx, "ok", jobs.Completion{OutputPath: "/tmp/out.mp4", DurationSeconds: 41.5, UnresolvedSegments: 1}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	job, _ = store.Get(ctx, "ok")
	if job.Status != jobs.StatusCompleted || job.OutputPath != "/tmp/out.mp4" || job.Attempts != 3 || job.Stage != "" {
		t.Fatalf("unexpected completed job: %#v", job)
	}
	if !job.Status.IsTerminal() || job.DurationSeconds != 41.5 || job.UnresolvedSegments != 1 {
		t.Fatalf("unexpected completion fields: %#v", job)
	}

	testsupport.NewJob(t, store, "bad", "Volcanoes")
	_ = store.UpdateStage(ctx, "bad", "keywords")
	if err := store.Fail(ctx, "bad", "coverage unattainable"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	job, _ = store.Get(ctx, "bad")
	if job.Status != jobs.StatusFailed || job.Stage != "keywords" || job.ErrorMessage != "coverage unattainable" {
		t.Fatalf("unexpected failed job: %#v", job)
	}
}

func TestGetAndUpdateMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateStage(ctx, "nope", "script"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from UpdateStage, got %v", err)
	}
	if _, err := store.Create(ctx, " ", "topic"); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := range 5 {
		testsupport.NewJob(t, store, fmt.Sprintf("job-%d", i), fmt.Sprintf("topic %d", i))
	}
	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 jobs, got %d", len(all))
	}
	if all[0].ID != "job-4" {
		t.Fatalf("expected newest first, got %s", all[0].ID)
	}
	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(limited))
	}
}

func TestFailRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, store, "a", "x")
	testsupport.NewJob(t, store, "b", "y")
	_ = store.Complete(ctx, "b", jobs.Completion{OutputPath: "/o.mp4"})

	changed, err := store.FailRunning(ctx, "interrupted")
	if err != nil {
		t.Fatalf("FailRunning: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected 1 job changed, got %d", changed)
	}
	job, _ := store.Get(ctx, "a")
	if job.Status != jobs.StatusFailed || job.ErrorMessage != "interrupted" {
		t.Fatalf("unexpected job %#v", job)
	}
}
