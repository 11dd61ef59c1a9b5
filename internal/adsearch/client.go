package adsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// Client talks to the ads search backend.
type Client struct {
	BaseURL  string
	Contract Contract
	Client   *http.Client
	Timeout  time.Duration
}

// NewClient returns a client for baseURL using the given contract.
func NewClient(baseURL string, contract Contract, timeout time.Duration) *Client {
	return &Client{
		BaseURL:  baseURL,
		Contract: contract,
		Timeout:  timeout,
	}
}

// ResolvedBaseURL returns the base URL without a trailing slash.
func (c *Client) ResolvedBaseURL() string {
	if c == nil || strings.TrimSpace(c.BaseURL) == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}

// Health issues a single GET /health. Any 2xx is healthy; the body is ignored.
func (c *Client) Health(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResolvedBaseURL()+"/health", nil)
	if err != nil {
		return &TransportError{Op: "health", Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &TransportError{Op: "health", Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServerError{StatusCode: resp.StatusCode, Detail: "API offline"}
	}
	return nil
}

// Search submits a query using the configured contract. Filters are only
// used by the legacy contract.
func (c *Client) Search(ctx context.Context, query, depth string, filters LegacyFilters) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		req *http.Request
		err error
	)
	switch c.contract() {
	case ContractPost:
		req, err = c.postRequest(ctx, query, depth)
	case ContractLegacy:
		req, err = c.legacyRequest(ctx, query, depth, filters)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, c.Contract)
	}
	if err != nil {
		return nil, &TransportError{Op: "search", Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &TransportError{Op: "search", Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.serverError(resp)
	}

	var payload SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &TransportError{Op: "decode", Err: err}
	}
	return &payload, nil
}

func (c *Client) postRequest(ctx context.Context, query, depth string) (*http.Request, error) {
	body, err := json.Marshal(SearchRequest{Query: query, Depth: depth})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ResolvedBaseURL()+"/api/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) legacyRequest(ctx context.Context, query, depth string, filters LegacyFilters) (*http.Request, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("depth", depth)
	params.Set("exclude_marketplaces", strconv.FormatBool(filters.ExcludeMarketplaces))
	params.Set("min_days", strconv.Itoa(filters.MinDays))
	params.Set("min_active_ads", strconv.Itoa(filters.MinActiveAds))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResolvedBaseURL()+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// serverError builds a ServerError from a non-2xx response. The legacy
// contract never carried a detail body, so only the status is reported.
func (c *Client) serverError(resp *http.Response) error {
	serverErr := &ServerError{StatusCode: resp.StatusCode}
	if c.contract() == ContractLegacy {
		return serverErr
	}

	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return serverErr
	}
	if body.Detail != nil {
		serverErr.Detail = *body.Detail
	}
	return serverErr
}

func (c *Client) contract() Contract {
	if c == nil || c.Contract == "" {
		return ContractPost
	}
	return c.Contract
}

func (c *Client) httpClient() *http.Client {
	if c != nil && c.Client != nil {
		return c.Client
	}
	timeout := 60 * time.Second
	if c != nil && c.Timeout > 0 {
		timeout = c.Timeout
	}
	return &http.Client{Timeout: timeout}
}

// ParseContract normalizes a contract name from config or flags.
func ParseContract(value string) (Contract, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ContractPost):
		return ContractPost, nil
	case string(ContractLegacy), "get":
		return ContractLegacy, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownContract, value)
	}
}

// IsTransport reports whether err is a network or decoding failure.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
