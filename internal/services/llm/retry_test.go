package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	policy := retryPolicy{attempts: 6, base: time.Second, max: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := policy.backoff(i + 1); got != expected {
			t.Fatalf("attempt %d: got %v want %v", i+1, got, expected)
		}
	}
}

func TestRetryPolicyNext(t *testing.T) {
	policy := retryPolicy{attempts: 3, base: time.Second, max: 10 * time.Second}
	ctx := context.Background()

	cases := []struct {
		name  string
		err   error
		retry bool
		wait  time.Duration
	}{
		{"server error", &StatusError{StatusCode: 502}, true, time.Second},
		{"rate limit with retry-after", &StatusError{StatusCode: 429, RetryAfter: 30 * time.Second}, true, 10 * time.Second},
		{"bad request", &StatusError{StatusCode: 400}, false, 0},
		{"unauthorized", &StatusError{StatusCode: 401}, false, 0},
		{"empty reply", &emptyReplyError{op: "llm complete"}, true, time.Second},
		{"canceled", context.Canceled, false, 0},
		{"plain", errors.New("decode response"), false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wait, retry := policy.next(ctx, tc.err, 1)
			if retry != tc.retry || wait != tc.wait {
				t.Fatalf("next = (%v, %v), want (%v, %v)", wait, retry, tc.wait, tc.retry)
			}
		})
	}

	if _, retry := policy.next(ctx, &StatusError{StatusCode: 500}, 3); retry {
		t.Fatal("expected no retry once attempts are exhausted")
	}
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, retry := policy.next(canceled, &StatusError{StatusCode: 500}, 1); retry {
		t.Fatal("expected no retry after cancellation")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("7"); got != 7*time.Second {
		t.Fatalf("seconds: got %v", got)
	}
	if got := parseRetryAfter("-3"); got != 0 {
		t.Fatalf("negative: got %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Fatalf("garbage: got %v", got)
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 50*time.Minute {
		t.Fatalf("http date: got %v", got)
	}
}

func TestClientReportsAttemptCountWhenRetriesExhausted(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryMaxAttempts(3),
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Fatalf("unexpected error %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped StatusError, got %v", err)
	}
}
