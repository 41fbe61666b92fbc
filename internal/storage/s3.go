// Package storage persists redacted exports in S3-compatible object storage
// using the donation folder hierarchy:
//
//	{research_donations|non_donations}/{donor}/{platform}/redacted/{file}
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("scrub/storage")

// Sentinel errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrAccessDenied   = errors.New("access denied")
	ErrNetworkError   = errors.New("network error")
)

// Folder groups for the top level of the hierarchy.
const (
	groupDonated    = "research_donations"
	groupNotDonated = "non_donations"
)

// S3Config holds S3/MinIO configuration.
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// S3Storage handles object storage operations.
type S3Storage struct {
	client *minio.Client
	bucket string
}

// NewS3Storage creates a new S3/MinIO storage client and verifies the
// bucket exists (the bucket is created out-of-band).
func NewS3Storage(config S3Config) (*S3Storage, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, config.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist: create it before starting the server", config.BucketName)
	}

	return &S3Storage{client: client, bucket: config.BucketName}, nil
}

// ObjectKey builds the hierarchy key for a donor's redacted export.
func ObjectKey(donated bool, donorID, platform, fileName string) string {
	group := groupNotDonated
	if donated {
		group = groupDonated
	}
	return fmt.Sprintf("%s/%s/%s/redacted/%s", group, donorID, platform, fileName)
}

// Upload stores a redacted export under the given key.
func (s *S3Storage) Upload(ctx context.Context, key string, data []byte) error {
	ctx, span := tracer.Start(ctx, "storage.upload",
		trace.WithAttributes(
			attribute.String("storage.key", key),
			attribute.Int("file.size", len(data)),
		))
	defer span.End()

	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return classifyStorageError(err, "upload")
	}
	return nil
}

// Download retrieves a stored export.
func (s *S3Storage) Download(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "storage.download",
		trace.WithAttributes(attribute.String("storage.key", key)))
	defer span.End()

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classifyStorageError(err, "download")
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classifyStorageError(err, "download")
	}

	span.SetAttributes(attribute.Int("file.size", len(data)))
	return data, nil
}

// Delete removes a stored export. Deleting a missing object is not an error.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "storage.delete",
		trace.WithAttributes(attribute.String("storage.key", key)))
	defer span.End()

	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return classifyStorageError(err, "delete")
	}
	return nil
}

// ListByPrefix returns the keys of every object under prefix, e.g. all of a
// donor's uploads.
func (s *S3Storage) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "storage.list_by_prefix",
		trace.WithAttributes(attribute.String("storage.prefix", prefix)))
	defer span.End()

	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			span.RecordError(obj.Err)
			span.SetStatus(codes.Error, obj.Err.Error())
			return nil, classifyStorageError(obj.Err, "list")
		}
		keys = append(keys, obj.Key)
	}
	span.SetAttributes(attribute.Int("object.count", len(keys)))
	return keys, nil
}

// classifyStorageError maps provider errors onto the package sentinels so
// callers can branch with errors.Is.
func classifyStorageError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch minioErr.Code {
		case "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%s: %w", operation, ErrObjectNotFound)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%s: %w", operation, ErrAccessDenied)
		}
	}

	msg := err.Error()
	for _, hint := range []string{"connection", "timeout", "network", "dial", "refused"} {
		if strings.Contains(msg, hint) {
			return fmt.Errorf("%s network issue: %w", operation, ErrNetworkError)
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
