package recording

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of *s3.Client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives finished recordings in an S3 bucket.
//
// Example usage:
//
//	sink := recording.NewS3Sink(recording.NewS3Client("eu-west-1", ""), "my-bucket", "recordings/")
//	key, err := sink.Upload(ctx, rec.Path())
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Sink creates a sink that uploads under prefix in bucket.
func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

// NewS3Client builds an S3 client from the standard AWS environment
// variables. A non-empty endpoint selects an S3-compatible store and
// path-style addressing.
func NewS3Client(region, endpoint string) *s3.Client {
	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, fmt.Errorf("recording: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}, nil
	})
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(creds),
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// Key returns the object key for the recording at file.
func (s *S3Sink) Key(file string) string {
	return s.prefix + path.Base(filepath.ToSlash(file))
}

// Upload copies the recording at file into the bucket and returns its key.
func (s *S3Sink) Upload(ctx context.Context, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("recording: read %s: %w", file, err)
	}
	if _, err := NewReader(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("recording: %s: %w", file, err)
	}

	key := s.Key(file)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"upload-time": s.now().UTC().Format(time.RFC3339),
			"bytes":       strconv.Itoa(len(data)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("recording: s3 upload failed: %w", err)
	}
	return key, nil
}
