package tennisapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
	"github.com/preston-bernstein/tennis-live-feed/internal/envelope"
	"github.com/preston-bernstein/tennis-live-feed/internal/providers"
)

// Config controls how the client reaches the tennis backend.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client reads the query and reporting endpoints of the tennis backend.
type Client struct {
	baseURL    string
	httpClient httpDoer
}

// NewClient constructs a client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		httpClient: resolveHTTPClient(cfg.HTTPClient),
	}
}

// FetchMatches performs one GET against the query endpoint.
func (c *Client) FetchMatches(ctx context.Context) ([]matches.Snapshot, error) {
	body, err := c.get(ctx, matchesPath)
	if err != nil {
		return nil, err
	}
	list, err := envelope.Parse(body)
	if errors.Is(err, envelope.ErrNoMatches) {
		return []matches.Snapshot{}, nil
	}
	if err != nil {
		return nil, c.fetchError(matchesPath, 0, err)
	}
	return list, nil
}

// FetchAnalysis returns the analysis report verbatim.
func (c *Client) FetchAnalysis(ctx context.Context) (json.RawMessage, error) {
	return c.report(ctx, analysisPath)
}

// FetchRaw returns the raw upstream capture verbatim.
func (c *Client) FetchRaw(ctx context.Context) (json.RawMessage, error) {
	return c.report(ctx, rawPath)
}

type reportStatus struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (c *Client) report(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !gojson.Valid(body) {
		return nil, c.fetchError(path, 0, errors.New("response is not valid JSON"))
	}

	var status reportStatus
	if err := gojson.Unmarshal(body, &status); err == nil && status.Status == "error" {
		msg := status.Error
		if msg == "" {
			msg = "unknown error occurred"
		}
		return nil, c.fetchError(path, 0, errors.New(msg))
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, c.fetchError(path, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fetchError(path, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Remaining:  resp.Header.Get("X-RateLimit-Remaining"),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    "tennis backend rate limited",
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySnippet))
		return nil, c.fetchError(path, resp.StatusCode, fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fetchError(path, resp.StatusCode, err)
	}
	return body, nil
}

func (c *Client) fetchError(path string, status int, err error) error {
	return &providers.FetchError{
		Provider:   providerName,
		Endpoint:   path,
		StatusCode: status,
		Err:        err,
	}
}
