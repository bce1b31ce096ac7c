package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrBucketNotFound is returned when the target bucket does not exist.
var ErrBucketNotFound = errors.New("Bucket not found")

// ErrObjectNotFound is returned when reading an object that does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore stores uploaded documents grouped in named buckets.
type ObjectStore interface {
	Put(ctx context.Context, bucket, objectPath, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, bucket, objectPath string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, objectPath string) error
	PublicURL(bucket, objectPath string) string
}

// IsBucketNotFound reports whether err means the bucket is missing. Remote
// stores only surface this as text in the response body.
func IsBucketNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBucketNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "bucket not found")
}

func cleanObjectPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		out = append(out, part)
	}
	return strings.Join(out, "/")
}
