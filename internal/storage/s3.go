// Package storage publishes finished videos to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config selects the bucket and client options.
type Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	Endpoint     string
	UsePathStyle bool
}

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads files under a key prefix.
type Publisher struct {
	client ObjectPutter
	cfg    Config
}

// NewPublisher loads the default AWS configuration and builds an S3 client.
func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("storage: bucket required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewPublisherWithClient(client, cfg), nil
}

// NewPublisherWithClient wraps an existing client.
func NewPublisherWithClient(client ObjectPutter, cfg Config) *Publisher {
	cfg.Prefix = strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	return &Publisher{client: client, cfg: cfg}
}

// Key joins the configured prefix with name.
func (p *Publisher) Key(name string) string {
	name = strings.TrimLeft(name, "/")
	if p.cfg.Prefix == "" {
		return name
	}
	return path.Join(p.cfg.Prefix, name)
}

// Publish uploads localPath under key and returns the object URL.
func (p *Publisher) Publish(ctx context.Context, localPath, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("storage: open %s: %w", localPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("storage: stat %s: %w", localPath, err)
	}

	fullKey := p.Key(key)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.cfg.Bucket),
		Key:           aws.String(fullKey),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("video/mp4"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object to S3: %w", err)
	}
	return p.objectURL(fullKey), nil
}

func (p *Publisher) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if p.cfg.Endpoint != "" {
		base := strings.TrimRight(p.cfg.Endpoint, "/")
		return fmt.Sprintf("%s/%s/%s", base, p.cfg.Bucket, escaped)
	}
	if p.cfg.Region != "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, escaped)
	}
	return fmt.Sprintf("s3://%s/%s", p.cfg.Bucket, key)
}
