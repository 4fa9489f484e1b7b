// Package airtable provides a minimal Airtable REST API client: read a single
// record by ID and bulk-create records, which is all the automations need.
package airtable

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

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	apperrors "github.com/sarahcave/coachos/internal/errors"
)

// MaxBatchSize is Airtable's per-request record-creation limit.
const MaxBatchSize = 10

// ClientOptions configures the Airtable API client
type ClientOptions struct {
	// BaseURL is the API base (default: "https://api.airtable.com")
	BaseURL string
	// APIKey is the Airtable personal access token
	APIKey string
	// BaseID is the Airtable base all tables live in
	BaseID string
	// RetryMax is the maximum number of retries (default: 3)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 30 seconds)
	Timeout time.Duration
	// RequestsPerSecond caps outbound request rate (default: 5, Airtable's documented limit)
	RequestsPerSecond float64
}

// Client is the Airtable API client
type Client struct {
	baseURL    string
	apiKey     string
	baseID     string
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Airtable API client with default settings
func NewClient(apiKey, baseID string) *Client {
	return NewClientWithOptions(ClientOptions{
		APIKey: apiKey,
		BaseID: baseID,
	})
}

// NewClientWithOptions creates a new Airtable API client with custom options
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.airtable.com"
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")

	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 5
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil // Disable logging by default

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		baseID:     opts.BaseID,
		httpClient: retryClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

// tableURL returns the REST URL for a table, escaping table names with spaces
// ("Action Items" -> "Action%20Items").
func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/v0/%s/%s", c.baseURL, c.baseID, url.PathEscape(table))
}

// GetRecord retrieves a single record from a table by ID.
func (c *Client) GetRecord(ctx context.Context, table, recordID string) (*Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.tableURL(table) + "/" + url.PathEscape(recordID)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp, "get record")
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	return &record, nil
}

// CreateRecords bulk-creates up to MaxBatchSize records in a table and returns
// the created records. Callers batch larger sets themselves; a single call
// exceeding the limit is rejected here rather than by the API.
func (c *Client) CreateRecords(ctx context.Context, table string, fields []Fields) ([]Record, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds Airtable limit of %d records per request", len(fields), MaxBatchSize)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body := createRecordsRequest{}
	for _, f := range fields {
		body.Records = append(body.Records, createRecord{Fields: f})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal create request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(table), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create records: %w", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp, "create records")
	}

	var created recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode create response: %w", err)
	}

	return created.Records, nil
}

func (c *Client) setHeaders(req *retryablehttp.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// errorFromResponse builds an ExternalServiceError from a non-200 response,
// preferring Airtable's error body when it parses. Callers can match the
// class with errors.Is(err, apperrors.ErrExternalService).
func (c *Client) errorFromResponse(resp *http.Response, op string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr apiError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apperrors.NewExternalServiceError("airtable",
			fmt.Sprintf("%s: returned %d (%s): %s", op, resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message))
	}

	return apperrors.NewExternalServiceError("airtable",
		fmt.Sprintf("%s: returned status %d", op, resp.StatusCode))
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
