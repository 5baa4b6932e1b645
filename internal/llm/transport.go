// ABOUTME: HTTP transport for LLM endpoints with retry on 429/5xx and exponential backoff
// ABOUTME: Also normalizes base URLs so a trailing /v1 is not doubled by versioned paths

package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultRetries     = 3
	defaultBaseBackoff = 500 * time.Millisecond
	maxBackoff         = 10 * time.Second
)

// transport wraps an http.Client with retry logic and default headers.
type transport struct {
	httpClient  *http.Client
	baseURL     string
	headers     map[string]string
	retries     int
	baseBackoff time.Duration
}

func newTransport(baseURL string, headers map[string]string, timeout time.Duration) *transport {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &transport{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				MaxIdleConns:          16,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		baseURL:     baseURL,
		headers:     headers,
		retries:     defaultRetries,
		baseBackoff: defaultBaseBackoff,
	}
}

// do sends the request, retrying on 429 and 5xx. The body is replayed from
// the byte slice on each attempt. After the retries are exhausted the last
// response is returned so callers can read the error body.
func (t *transport) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := t.buildRequest(ctx, method, path, body)
		if err != nil {
			return nil, err
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request failed: %w", err)
		}
		if !isRetryable(resp.StatusCode) || attempt >= t.retries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := sleepWithContext(ctx, t.backoff(attempt)); err != nil {
			return nil, fmt.Errorf("context cancelled during retry backoff: %w", err)
		}
	}
}

func (t *transport) buildRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s %s: %w", method, path, err)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func (t *transport) backoff(attempt int) time.Duration {
	d := time.Duration(float64(t.baseBackoff) * math.Pow(2, float64(attempt)))
	return min(d, maxBackoff)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NormalizeBaseURL strips a trailing "/v1" (and any trailing slash) when it
// is the sole path, so "http://host:8000/v1" and "http://host:8000" both
// resolve to the same chat completions endpoint. Nested paths such as
// "http://host/api/v1" are kept.
func NormalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	if u.Path == "/v1" {
		u.Path = ""
		return strings.TrimRight(u.String(), "/")
	}
	return baseURL
}
