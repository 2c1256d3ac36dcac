package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestPublishUploadsUnderPrefix(t *testing.T) {
	local := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(local, []byte("mp4-bytes"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	putter := &fakePutter{}
	pub := NewPublisherWithClient(putter, Config{Bucket: "reels", Prefix: "/videos/", Region: "us-east-1"})

	url, err := pub.Publish(context.Background(), local, "job-1/video.mp4")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(putter.input.Key); got != "videos/job-1/video.mp4" {
		t.Fatalf("unexpected key %q", got)
	}
	if aws.ToString(putter.input.Bucket) != "reels" || aws.ToInt64(putter.input.ContentLength) != 9 {
		t.Fatalf("unexpected input %+v", putter.input)
	}
	if string(putter.body) != "mp4-bytes" {
		t.Fatalf("unexpected body %q", putter.body)
	}
	if url != "https://reels.s3.us-east-1.amazonaws.com/videos/job-1/video.mp4" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestPublishEndpointURLAndErrors(t *testing.T) {
	local := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(local, []byte("x"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	pub := NewPublisherWithClient(&fakePutter{}, Config{Bucket: "b", Endpoint: "http://minio:9000/"})
	url, err := pub.Publish(context.Background(), local, "a.mp4")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if url != "http://minio:9000/b/a.mp4" {
		t.Fatalf("unexpected url %q", url)
	}

	failing := NewPublisherWithClient(&fakePutter{err: errors.New("denied")}, Config{Bucket: "b"})
	if _, err := failing.Publish(context.Background(), local, "a.mp4"); err == nil {
		t.Fatal("expected upload error")
	}
	if _, err := pub.Publish(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), "a.mp4"); err == nil {
		t.Fatal("expected missing file error")
	}
}
