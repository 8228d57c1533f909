package figma

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quellt/boxwood/pkg/cache"
	"github.com/quellt/boxwood/pkg/errors"
	"github.com/quellt/boxwood/pkg/httputil"
	"github.com/quellt/boxwood/pkg/observability"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.figma.com"

	// tokenHeader carries the personal access token on every request.
	tokenHeader = "X-Figma-Token"

	httpTimeout = 10 * time.Second
)

// Client provides access to the design file API.
// It handles caching, retry logic, and authentication.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	baseURL string
	token   string
}

// NewClient creates an API client for the given personal access token.
// Pass a nil backend to disable response caching, and a nil keyer to use
// the default key schema.
func NewClient(token string, backend cache.Cache, keyer cache.Keyer) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		cache:   backend,
		keyer:   keyer,
		baseURL: DefaultBaseURL,
		token:   token,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests and API mirrors.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// User identifies the owner of an access token.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Handle string `json:"handle"`
	ImgURL string `json:"img_url"`
}

// Me returns the identity behind the client's token. Login verification
// calls this; it is never cached so a revoked token fails immediately.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, c.baseURL+"/v1/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// cachedBytes returns the cached payload for key, or fetches it with
// retry and stores it. If refresh is true the cache is bypassed and
// fetch always runs. keyType labels the payload class for cache hooks.
func (c *Client) cachedBytes(ctx context.Context, key, keyType string, ttl time.Duration, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, keyType)
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyType)
	}

	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var ferr error
		data, ferr = fetch()
		return ferr
	})
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, key, data, ttl)
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return data, nil
}

// getJSON performs a GET and JSON-decodes the response into v, retrying
// transient failures.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	return httputil.RetryWithBackoff(ctx, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "decode API response")
		}
		return nil
	})
}

// getBytes performs a single GET and returns the raw body.
func (c *Client) getBytes(ctx context.Context, url string) ([]byte, error) {
	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}

	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "API request failed")}
	}
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// checkStatus maps HTTP status codes onto the error taxonomy. Auth
// failures are terminal; rate limits and server errors are retryable.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "invalid or expired access token")
	case resp.StatusCode == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "token does not grant access to this resource")
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "resource not found")
	case resp.StatusCode == http.StatusTooManyRequests:
		return &httputil.RetryableError{Err: &errors.RateLimitedError{
			RetryAfter: retryAfterSeconds(resp.Header.Get("Retry-After")),
			Message:    "API rate limit exceeded",
		}}
	case resp.StatusCode >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "server error: status %d", resp.StatusCode)}
	default:
		return errors.New(errors.ErrCodeNetwork, "unexpected status %d", resp.StatusCode)
	}
}

func retryAfterSeconds(header string) int {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
