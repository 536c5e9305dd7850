package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
)

const userAgent = "NARPit-Dashboard/1.0"

// apiClient is the JSON-over-HTTP plumbing shared by the upstream clients.
type apiClient struct {
	name    string
	baseURL string
	headers map[string]string
	client  *http.Client
}

func newAPIClient(name, baseURL string, timeout time.Duration, headers map[string]string) *apiClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &apiClient{
		name:    name,
		baseURL: baseURL,
		headers: headers,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
	}
}

// getJSON fetches baseURL+path into dest. A 404 maps to
// ErrResourceNotFound, every other failure to ErrUpstream.
func (c *apiClient) getJSON(ctx context.Context, path string, dest any) error {
	errFactory := errors.New()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errFactory.Wrap(errors.ErrUpstream, fmt.Errorf("%s: create request: %w", c.name, err))
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errFactory.Wrap(errors.ErrUpstream, fmt.Errorf("%s: execute request: %w", c.name, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return errFactory.WithMessage(errors.ErrResourceNotFound, fmt.Sprintf("%s: %s not found", c.name, path))
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return errFactory.WithMessage(errors.ErrUpstream, fmt.Sprintf("%s API returned status %d", c.name, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errFactory.Wrap(errors.ErrUpstream, fmt.Errorf("%s: decode JSON: %w", c.name, err))
	}
	return nil
}

// number reads the first present numeric key from a loosely typed object.
func number(fields map[string]json.RawMessage, keys ...string) float64 {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var v float64
		if json.Unmarshal(raw, &v) == nil {
			return v
		}
	}
	return 0
}
