// Package storage talks to Supabase Storage over its REST surface. Photo
// binaries live out-of-row in one bucket, keyed by generated filename.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"io.winapps.sitefollowup/internal/errs"
)

// ObjectStore is the keyed blob store the ingestion pipeline, report
// builder, and orphan sweeper depend on.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, keys []string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	PublicURL(key string) string
}

// ObjectInfo describes one stored object, as returned by List.
type ObjectInfo struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is a Supabase Storage client scoped to a single bucket.
type Client struct {
	baseURL string
	apiKey  string
	bucket  string
	http    *http.Client
}

// NewClient creates a storage client for the given project URL, service
// key, and bucket.
func NewClient(baseURL, apiKey, bucket string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// NewFromEnv builds a client from SUPABASE_URL, SUPABASE_KEY, and
// SUPABASE_BUCKET (default "photos"). Missing credentials are an error so
// the process fails fast instead of carrying a half-configured client.
func NewFromEnv() (*Client, error) {
	baseURL := os.Getenv("SUPABASE_URL")
	apiKey := os.Getenv("SUPABASE_KEY")
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must be set")
	}
	bucket := os.Getenv("SUPABASE_BUCKET")
	if bucket == "" {
		bucket = "photos"
	}
	return NewClient(baseURL, apiKey, bucket), nil
}

// Upload stores data under key. Any transport or permission failure is a
// StorageError; callers treat it as fatal to the whole submission.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return &errs.StorageError{Op: "upload", Key: key, Err: err}
	}
	c.authorize(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return &errs.StorageError{Op: "upload", Key: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errs.StorageError{Op: "upload", Key: key, Err: statusErr(resp)}
	}
	return nil
}

// Download fetches the bytes stored under key. A missing key yields a
// NotFoundError, any other failure a StorageError.
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.StorageError{Op: "download", Key: key, Err: err}
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &errs.StorageError{Op: "download", Key: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &errs.NotFoundError{Kind: "object", ID: key}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errs.StorageError{Op: "download", Key: key, Err: statusErr(resp)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.StorageError{Op: "download", Key: key, Err: err}
	}
	return data, nil
}

// Remove deletes the given keys in one call. Callers treat failure as
// advisory; rows are deleted first and storage cleanup never blocks them.
func (c *Client) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	url := fmt.Sprintf("%s/storage/v1/object/%s", c.baseURL, c.bucket)
	body, err := json.Marshal(map[string][]string{"prefixes": keys})
	if err != nil {
		return &errs.StorageError{Op: "remove", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(body))
	if err != nil {
		return &errs.StorageError{Op: "remove", Err: err}
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &errs.StorageError{Op: "remove", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errs.StorageError{Op: "remove", Err: statusErr(resp)}
	}
	return nil
}

// listPageSize is the page size requested from the list endpoint.
const listPageSize = 1000

// List returns every object under prefix, used by the orphan sweeper.
// Pages through the endpoint until a short page; truncating here would
// make the sweeper treat unlisted objects as nonexistent.
func (c *Client) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for offset := 0; ; offset += listPageSize {
		page, err := c.listPage(ctx, prefix, offset)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page...)
		if len(page) < listPageSize {
			return objects, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, prefix string, offset int) ([]ObjectInfo, error) {
	url := fmt.Sprintf("%s/storage/v1/object/list/%s", c.baseURL, c.bucket)
	body, err := json.Marshal(map[string]any{
		"prefix": prefix,
		"limit":  listPageSize,
		"offset": offset,
	})
	if err != nil {
		return nil, &errs.StorageError{Op: "list", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &errs.StorageError{Op: "list", Err: err}
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &errs.StorageError{Op: "list", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errs.StorageError{Op: "list", Err: statusErr(resp)}
	}
	var page []ObjectInfo
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &errs.StorageError{Op: "list", Err: err}
	}
	return page, nil
}

// PublicURL builds the public URL for a stored key. Pure string
// construction, no I/O.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, key)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
}

func statusErr(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}
