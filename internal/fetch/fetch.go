package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrInvalidURL is returned for malformed or non-absolute input URLs.
// No network request is made for an invalid URL.
var ErrInvalidURL = errors.New("invalid URL")

// Error is a fatal page-fetch failure: network error, timeout, or a
// non-success HTTP status. No detector runs after a fetch failure.
type Error struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: server returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Page is the result of a single page fetch, shared read-only by all
// detectors so the page is retrieved at most once per request.
type Page struct {
	// URL is the final URL after redirects
	URL *url.URL
	// RequestURL is the URL the caller originally asked for
	RequestURL  string
	StatusCode  int
	ContentType string
	Body        []byte
}

// maxBodySize caps how much of a page is read into memory (16 MiB).
const maxBodySize = 16 << 20

// Client fetches pages with a configurable timeout and user agent.
type Client struct {
	httpClient *http.Client
	userAgent  string

	retryAttempts int
	retryDelay    time.Duration
}

// NewClient creates a page-fetch client. The timeout bounds the whole
// request including body read; on timeout the request fails fast.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent:     userAgent,
		retryAttempts: 2,
		retryDelay:    500 * time.Millisecond,
	}
}

// ValidateURL checks that rawURL is a syntactically valid absolute
// http(s) URL. Returns the parsed URL or ErrInvalidURL.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q (scheme must be http or https)", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q (missing host)", ErrInvalidURL, rawURL)
	}
	return u, nil
}

// Fetch retrieves rawURL once, retrying transient network failures with
// a short backoff. Non-2xx statuses and exhausted retries surface as *Error.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if _, err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		page, err := c.fetchOnce(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err

		// Status errors and cancellations are not retryable
		var fe *Error
		if errors.As(err, &fe) && fe.StatusCode != 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			return nil, &Error{URL: rawURL, Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	return &Page{
		URL:         resp.Request.URL,
		RequestURL:  rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
