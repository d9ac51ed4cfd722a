package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"betterfiction/internal/work"
	"betterfiction/pkg/models"
)

const (
	// DefaultTimeout bounds one fetch attempt; the in-flight request is
	// aborted on expiry.
	DefaultTimeout = 8 * time.Second
	// DefaultRetries is the number of retries after the initial attempt.
	DefaultRetries = 2
)

// ErrorLog receives a diagnostic entry when a fetch exhausts its retries.
type ErrorLog interface {
	LogError(ctx context.Context, kind, message string, meta map[string]string)
}

// Error is the terminal failure of one chapter fetch.
type Error struct {
	StoryID  string
	Chapter  int
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch story %s chapter %d (%d attempts): %v", e.StoryID, e.Chapter, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client fetches chapter pages with a per-attempt timeout and bounded retry.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Timeout time.Duration
	Retries int
	Log     ErrorLog
}

func NewClient(baseURL string, errorLog ErrorLog) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{},
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
		Log:     errorLog,
	}
}

// FetchChapter downloads and parses one chapter. It attempts up to
// Retries+1 times; earlier failures retry silently and only the final
// exhausted attempt produces a single fetch-error diagnostic entry.
func (c *Client) FetchChapter(ctx context.Context, storyID string, chapter int) (*work.Fragment, error) {
	retries := c.Retries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for i := 0; i <= retries; i++ {
		frag, err := c.attempt(ctx, storyID, chapter)
		if err == nil {
			return frag, nil
		}
		lastErr = err
	}

	ferr := &Error{StoryID: storyID, Chapter: chapter, Attempts: retries + 1, Err: lastErr}
	if c.Log != nil {
		c.Log.LogError(ctx, models.LogFetchError, "Failed to fetch chapter during Entire Work", map[string]string{
			"id":      storyID,
			"chapter": strconv.Itoa(chapter),
			"error":   lastErr.Error(),
		})
	}
	return nil, ferr
}

func (c *Client) attempt(ctx context.Context, storyID string, chapter int) (*work.Fragment, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/s/%s/%d", c.BaseURL, storyID, chapter)
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	frag, err := ParseChapter(resp.Body, chapter)
	if err != nil {
		return nil, err
	}
	return frag, nil
}
