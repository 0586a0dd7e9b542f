// Package branding stores the bank's logo and derived header styling so the
// client UI can brand itself. Objects live in an HTTP object store when one
// is configured, with a local-directory fallback for development.
package branding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStore is the minimal blob surface branding needs.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Get(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// HTTPStore talks to an S3-style object store over plain HTTP. Objects are
// keyed under a bucket path; the store must accept PUT/GET/HEAD on
// /<bucket>/<name>.
type HTTPStore struct {
	baseURL string
	bucket  string
	httpc   *http.Client
}

func NewHTTPStore(baseURL, bucket string, httpc *http.Client) *HTTPStore {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		httpc:   httpc,
	}
}

func (s *HTTPStore) objectURL(name string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, name)
}

func (s *HTTPStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(name), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("object put: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("object put: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("object put %s: status %d: %s", name, resp.StatusCode, string(body))
	}
	return nil
}

func (s *HTTPStore) Get(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(name), nil)
	if err != nil {
		return nil, fmt.Errorf("object get: %w", err)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("object get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, os.ErrNotExist
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("object get %s: status %d", name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *HTTPStore) Exists(ctx context.Context, name string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.objectURL(name), nil)
	if err != nil {
		return false, fmt.Errorf("object head: %w", err)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return false, fmt.Errorf("object head: %w", err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("object head %s: status %d", name, resp.StatusCode)
	}
}

// DirStore keeps objects as files under a local directory.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("branding dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *DirStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	return os.WriteFile(s.path(name), data, 0o644)
}

func (s *DirStore) Get(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(s.path(name))
}

func (s *DirStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(s.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// fallbackStore tries the primary store and falls back to the secondary on
// any error, so a flaky object store degrades to local files instead of
// failing uploads.
type fallbackStore struct {
	primary   ObjectStore
	secondary ObjectStore
}

// NewFallbackStore chains two stores. Reads that miss with os.ErrNotExist
// on the primary also consult the secondary.
func NewFallbackStore(primary, secondary ObjectStore) ObjectStore {
	return &fallbackStore{primary: primary, secondary: secondary}
}

func (s *fallbackStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if err := s.primary.Put(ctx, name, data, contentType); err != nil {
		slog.Warn("primary object store put failed, falling back", "object", name, "error", err)
		return s.secondary.Put(ctx, name, data, contentType)
	}
	return nil
}

func (s *fallbackStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.primary.Get(ctx, name)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		slog.Warn("primary object store get failed, falling back", "object", name, "error", err)
	}
	return s.secondary.Get(ctx, name)
}

func (s *fallbackStore) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := s.primary.Exists(ctx, name)
	if err == nil && ok {
		return true, nil
	}
	if err != nil {
		slog.Warn("primary object store head failed, falling back", "object", name, "error", err)
	}
	return s.secondary.Exists(ctx, name)
}
