package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/metrics"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

const (
	tenantHeader   = "X-Tenant-ID"
	maxBodyBytes   = 8 << 20
	retryBaseDelay = 200 * time.Millisecond
)

// Client talks to the fleet backend that fronts the telematics provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxRetries uint64
	retryBase  time.Duration
	maxBody    int64
}

func NewClient(baseURL, token string, httpClient *http.Client, maxRetries uint64) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("backend.NewClient: invalid base url %q", baseURL)
	}
	if httpClient == nil {
		return nil, fmt.Errorf("backend.NewClient: HTTP client is nil")
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
		maxRetries: maxRetries,
		retryBase:  retryBaseDelay,
		maxBody:    maxBodyBytes,
	}, nil
}

var errBodyTooLarge = errors.New("response body too large")

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func (c *Client) endpoint(query url.Values, elem ...string) (string, error) {
	u, err := url.JoinPath(c.baseURL, elem...)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, target, tenantID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if tenantID != "" {
		req.Header.Set(tenantHeader, tenantID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendLatency.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s %s: %w", model.ErrRemoteUnavailable, method, target, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	metrics.BackendLatency.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", model.ErrRemoteUnavailable, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s %s: %w (%d bytes)", model.ErrRemoteUnavailable, method, target, errBodyTooLarge, c.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &statusError{code: resp.StatusCode, body: truncate(string(body), 256)}
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", model.ErrVehicleNotFound, serr)
		}
		return nil, fmt.Errorf("%w: %w", model.ErrRemoteUnavailable, serr)
	}

	return body, nil
}

// getWithRetry retries idempotent reads on network errors, 429 and 5xx.
func (c *Client) getWithRetry(ctx context.Context, op, target, tenantID string) ([]byte, error) {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, err := c.do(ctx, op, http.MethodGet, target, tenantID)
		if err != nil {
			if retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

func retryable(err error) bool {
	if errors.Is(err, errBodyTooLarge) {
		return false
	}

	var serr *statusError
	if !errors.As(err, &serr) {
		return true
	}
	return serr.code == http.StatusTooManyRequests || serr.code >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
