// Package provider implements the countervalues API client: historical
// rate windows per pair and one batched latest-rate call.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/BenAffleck/ledger-live-common/internal/countervalue"
)

const (
	defaultEndpoint = "https://countervalues.live.ledger.com"
	userAgent       = "ledger-live-common/1.0"
)

// Client talks to a countervalues API.
type Client struct {
	endpoint string
	client   *http.Client
}

// New creates a Client with the given options applied.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API base URL.
func WithEndpoint(ep string) Option {
	return func(c *Client) { c.endpoint = ep }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// FetchHistorical retrieves the rate buckets of one pair from its start
// date onward. The response is a JSON object keyed by bucket
// (optionally including "latest"). Non-2xx responses yield
// *countervalue.HTTPError so the engine can drive backoff.
func (c *Client) FetchHistorical(ctx context.Context, g countervalue.Granularity, pair countervalue.TrackingPair) (countervalue.RateMap, error) {
	reqURL := fmt.Sprintf("%s/rates/%s/%s?start=%s",
		c.endpoint,
		url.PathEscape(string(g)),
		url.PathEscape(pair.Key()),
		url.QueryEscape(g.BucketKey(*pair.StartDate)),
	)

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid rates payload for %s", pair.Key())
	}

	rates := make(countervalue.RateMap)
	gjson.ParseBytes(body).ForEach(func(key, value gjson.Result) bool {
		rates[key.String()] = value.Float()
		return true
	})

	slog.Debug("retrieved historical rates",
		"pair", pair.Key(), "granularity", string(g), "count", len(rates))
	return rates, nil
}

// FetchLatest retrieves the current spot rate of every pair in a single
// request. The response array is aligned with the request order.
func (c *Client) FetchLatest(ctx context.Context, pairs []countervalue.Pair) ([]float64, error) {
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key()
	}
	payload, err := json.Marshal(keys)
	if err != nil {
		return nil, fmt.Errorf("encode latest request: %w", err)
	}

	reqURL := c.endpoint + "/rates/latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, &countervalue.HTTPError{Status: res.StatusCode, URL: reqURL}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body).Array()
	rates := make([]float64, len(pairs))
	for i := range rates {
		if i < len(parsed) {
			rates[i] = parsed[i].Float()
		}
	}
	return rates, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, &countervalue.HTTPError{Status: res.StatusCode, URL: reqURL}
	}
	return io.ReadAll(res.Body)
}
