package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"factreel/internal/config"
)

const userAgent = "factreel/0.1"

// Service is the notification surface used by the pipeline and CLI.
type Service interface {
	NotifyVideoReady(ctx context.Context, topic, location string, duration time.Duration) error
	NotifyJobFailed(ctx context.Context, topic string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyVideoReady(ctx context.Context, topic, location string, duration time.Duration) error {
	message := fmt.Sprintf("🎬 Video ready: %s", strings.TrimSpace(topic))
	if duration > 0 {
		message += fmt.Sprintf(" (%s)", duration.Round(time.Second))
	}
	if location = strings.TrimSpace(location); location != "" {
		message += "\n" + location
	}
	return n.send(ctx, payload{
		title:   "factreel - Video Ready",
		message: message,
		tags:    []string{"factreel", "video", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, topic string, err error) error {
	var b strings.Builder
	b.WriteString("❌ Generation failed: ")
	b.WriteString(strings.TrimSpace(topic))
	if err != nil {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(err.Error()))
	}
	return n.send(ctx, payload{
		title:    "factreel - Error",
		message:  b.String(),
		tags:     []string{"factreel", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "factreel - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"factreel", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyVideoReady(context.Context, string, string, time.Duration) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, error) error                 { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
