// Package client talks to the bookmark HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
	"github.com/MrSnakeDoc/dashboard/internal/utils"
)

const bookmarksPath = "/api/bookmarks"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bookmark api: status %d", e.Status)
	}
	return fmt.Sprintf("bookmark api: status %d: %s", e.Status, e.Message)
}

// Unwrap maps the status code onto the domain sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return domain.ErrValidation
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Status == http.StatusConflict:
		return domain.ErrConflict
	default:
		return domain.ErrStore
	}
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// New returns a client for the API rooted at baseURL (e.g. http://localhost:8080).
func New(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type bookmarkPayload struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Tags    []string `json:"tags"`
	Version int64    `json:"version,omitempty"`
}

func (p bookmarkPayload) toDomain() domain.Bookmark {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Bookmark{ID: p.ID, Name: p.Name, URL: p.URL, Tags: tags, Version: p.Version}
}

type listResponse struct {
	Bookmarks []bookmarkPayload `json:"bookmarks"`
}

type bookmarkResponse struct {
	Bookmark bookmarkPayload `json:"bookmark"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// List fetches every bookmark in server order.
func (c *Client) List(ctx context.Context) ([]domain.Bookmark, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, bookmarksPath, nil, &out); err != nil {
		return nil, err
	}
	list := make([]domain.Bookmark, 0, len(out.Bookmarks))
	for _, p := range out.Bookmarks {
		list = append(list, p.toDomain())
	}
	return list, nil
}

// Create stores a new bookmark and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, name, link string, tags []string) (domain.Bookmark, error) {
	if tags == nil {
		tags = []string{}
	}
	var out bookmarkResponse
	err := c.do(ctx, http.MethodPost, bookmarksPath, bookmarkPayload{Name: name, URL: link, Tags: tags}, &out)
	if err != nil {
		return domain.Bookmark{}, err
	}
	return out.Bookmark.toDomain(), nil
}

// Update replaces name, url and tags of b.ID. A non-zero b.Version is checked by the server.
func (c *Client) Update(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	in := bookmarkPayload{ID: b.ID, Name: b.Name, URL: b.URL, Tags: tags, Version: b.Version}

	var out bookmarkResponse
	if err := c.do(ctx, http.MethodPatch, bookmarksPath, in, &out); err != nil {
		return domain.Bookmark{}, err
	}
	return out.Bookmark.toDomain(), nil
}

// Delete removes id. Deleting an unknown id succeeds.
func (c *Client) Delete(ctx context.Context, id string) error {
	q := url.Values{"id": []string{id}}
	return c.do(ctx, http.MethodDelete, bookmarksPath+"?"+q.Encode(), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, domain.ErrConnection, err)
	}
	defer utils.LogClose(resp.Body, c.log, "response body")

	c.log.Debug("bookmark api call",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
