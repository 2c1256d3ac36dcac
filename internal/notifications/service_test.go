package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"factreel/internal/config"
	"factreel/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func serviceFor(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyVideoReady(context.Background(), "bees", "/tmp/out.mp4", time.Minute); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNotifyVideoReady(t *testing.T) {
	srv, got := newNtfyServer(t, http.StatusOK)
	svc := serviceFor(srv.URL)

	if err := svc.NotifyVideoReady(context.Background(), "octopus", "https://bucket/job/octopus.mp4", 61400*time.Millisecond); err != nil {
		t.Fatalf("NotifyVideoReady: %v", err)
	}
	if got.title != "factreel - Video Ready" {
		t.Fatalf("unexpected title %q", got.title)
	}
	if got.body != "🎬 Video ready: octopus (1m1s)\nhttps://bucket/job/octopus.mp4" {
		t.Fatalf("unexpected body %q", got.body)
	}
	if got.tags != "factreel,video,completed" {
		t.Fatalf("unexpected tags %q", got.tags)
	}
	if got.priority != "" {
		t.Fatalf("expected default priority, got %q", got.priority)
	}
}

func TestNotifyJobFailed(t *testing.T) {
	srv, got := newNtfyServer(t, http.StatusOK)
	svc := serviceFor(srv.URL)

	if err := svc.NotifyJobFailed(context.Background(), "octopus", errors.New("external tool error: render: ffmpeg: exit 1")); err != nil {
		t.Fatalf("NotifyJobFailed: %v", err)
	}
	if got.body != "❌ Generation failed: octopus\nexternal tool error: render: ffmpeg: exit 1" {
		t.Fatalf("unexpected body %q", got.body)
	}
	if got.priority != "high" {
		t.Fatalf("expected high priority, got %q", got.priority)
	}
}

func TestSendReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	svc := serviceFor(srv.URL)

	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
