package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ratelock/internal/domain"
)

const maxFeedBodyBytes = 1 << 20

// RateFeedClient fetches the latest pivot-denominated rate table,
// e.g. https://api.frankfurter.app/latest.
type RateFeedClient struct {
	http *http.Client
	url  string
}

// FetchLatest returns the decoded feed payload. Transport failures and non-2xx
// statuses wrap domain.ErrUpstreamFetch, an unparseable body wraps
// domain.ErrUpstreamData.
func (c *RateFeedClient) FetchLatest(ctx context.Context) (domain.FeedPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.FeedPayload{}, fmt.Errorf("%w: failed to create request: %w", domain.ErrUpstreamFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.FeedPayload{}, fmt.Errorf("%w: failed to execute request: %w", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFeedBodyBytes))
		return domain.FeedPayload{}, fmt.Errorf("%w: unexpected status code %d: %s", domain.ErrUpstreamFetch, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		return domain.FeedPayload{}, fmt.Errorf("%w: failed to read response: %w", domain.ErrUpstreamFetch, err)
	}

	var payload domain.FeedPayload
	if err = json.Unmarshal(body, &payload); err != nil {
		return domain.FeedPayload{}, fmt.Errorf("%w: failed to decode response: %w", domain.ErrUpstreamData, err)
	}
	return payload, nil
}

func NewRateFeedClient(httpClient *http.Client, url string) *RateFeedClient {
	return &RateFeedClient{http: httpClient, url: url}
}
