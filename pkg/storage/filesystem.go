package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists objects on disk; each bucket is a directory under the
// base dir.
type LocalStorage struct {
	baseDir       string
	publicBaseURL string
	autoCreate    bool
}

// NewLocalStorage ensures the base directory exists and returns a handle.
// Buckets are only created on demand when autoCreate is set.
func NewLocalStorage(baseDir, publicBaseURL string, autoCreate bool) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		autoCreate:    autoCreate,
	}, nil
}

// CreateBucket makes the bucket directory.
func (s *LocalStorage) CreateBucket(bucket string) error {
	if err := os.MkdirAll(filepath.Join(s.baseDir, cleanObjectPath(bucket)), 0o755); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Put copies body into bucket/objectPath.
func (s *LocalStorage) Put(ctx context.Context, bucket, objectPath, _ string, body io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bucketDir, err := s.bucketDir(bucket)
	if err != nil {
		return err
	}
	path := filepath.Join(bucketDir, filepath.FromSlash(cleanObjectPath(objectPath)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare object directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, body); err != nil {
		return fmt.Errorf("write object stream: %w", err)
	}
	return nil
}

// Get opens a stored object for reading.
func (s *LocalStorage) Get(_ context.Context, bucket, objectPath string) (io.ReadCloser, error) {
	file, err := os.Open(s.Path(bucket, objectPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object file: %w", err)
	}
	return file, nil
}

// Delete removes a stored object if present.
func (s *LocalStorage) Delete(_ context.Context, bucket, objectPath string) error {
	if err := os.Remove(s.Path(bucket, objectPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object file: %w", err)
	}
	return nil
}

// PublicURL points at the API's file route for the object.
func (s *LocalStorage) PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, url.PathEscape(bucket), escapePath(cleanObjectPath(objectPath)))
}

// Path exposes the absolute path of an object (useful for debugging).
func (s *LocalStorage) Path(bucket, objectPath string) string {
	return filepath.Join(s.baseDir, cleanObjectPath(bucket), filepath.FromSlash(cleanObjectPath(objectPath)))
}

func (s *LocalStorage) bucketDir(bucket string) (string, error) {
	dir := filepath.Join(s.baseDir, cleanObjectPath(bucket))
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return dir, nil
	case err != nil && !os.IsNotExist(err):
		return "", fmt.Errorf("stat bucket %s: %w", bucket, err)
	}
	if !s.autoCreate {
		return "", fmt.Errorf("%s: %w", bucket, ErrBucketNotFound)
	}
	if err := s.CreateBucket(bucket); err != nil {
		return "", err
	}
	return dir, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
