package fetch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source fetches parts from an s3:// base URL, one GetObject per part.
// Credentials come from the default SDK chain.
type S3Source struct {
	client *s3.Client
}

func NewS3Source(ctx context.Context, profile string) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMode("standard"),
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	return &S3Source{client: s3.NewFromConfig(cfg)}, nil
}

func (s *S3Source) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &ServerError{URL: rawURL, Err: err}
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &ServerError{URL: rawURL, Err: err}
	}
	if len(data) == 0 {
		return nil, &ServerError{URL: rawURL, Err: errEmptyBody}
	}
	return data, nil
}

func parseS3URL(rawURL string) (string, string, error) {
	trimmed := strings.TrimPrefix(rawURL, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL format: %s", rawURL)
	}
	return parts[0], parts[1], nil
}
