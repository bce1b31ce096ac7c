package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseStorage talks to a Supabase compatible storage REST API using the
// service role key.
type SupabaseStorage struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewSupabaseStorage builds a client for the project at baseURL.
func NewSupabaseStorage(baseURL, serviceKey string, timeout time.Duration, client *http.Client) (*SupabaseStorage, error) {
	if baseURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("supabase url and service key are required")
	}
	if client == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     client,
	}, nil
}

// Put uploads the object, overwriting any existing object at the same path.
func (s *SupabaseStorage) Put(ctx context.Context, bucket, objectPath, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(bucket, objectPath), body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	if size > 0 {
		req.ContentLength = size
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("x-upsert", "true")
	return s.do(req, nil)
}

// Get downloads an object through the authenticated endpoint.
func (s *SupabaseStorage) Get(ctx context.Context, bucket, objectPath string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(bucket, objectPath), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	var buf bytes.Buffer
	if err := s.do(req, &buf); err != nil {
		return nil, err
	}
	return io.NopCloser(&buf), nil
}

// Delete removes an object.
func (s *SupabaseStorage) Delete(ctx context.Context, bucket, objectPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(bucket, objectPath), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	return s.do(req, nil)
}

// PublicURL returns the unauthenticated URL of an object in a public bucket.
func (s *SupabaseStorage) PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, url.PathEscape(bucket), escapePath(cleanObjectPath(objectPath)))
}

func (s *SupabaseStorage) objectURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, url.PathEscape(bucket), escapePath(cleanObjectPath(objectPath)))
}

func (s *SupabaseStorage) do(req *http.Request, out io.Writer) error {
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("storage request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(body))
		if strings.Contains(strings.ToLower(msg), "bucket not found") {
			return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrBucketNotFound)
		}
		if resp.StatusCode == http.StatusNotFound {
			return ErrObjectNotFound
		}
		return fmt.Errorf("storage %s failed with status %d: %s", req.Method, resp.StatusCode, msg)
	}
	if out != nil {
		if _, err := io.Copy(out, resp.Body); err != nil {
			return fmt.Errorf("read storage response: %w", err)
		}
	}
	return nil
}
