package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultSerpAPIEndpoint is the SerpAPI search endpoint
	DefaultSerpAPIEndpoint = "https://serpapi.com/search"
	// DefaultEngine is the engine parameter sent with every query
	DefaultEngine = "google"
	// DefaultNumResults is the result count requested per query
	DefaultNumResults = 10
	// DefaultQueryTimeout bounds a single search request
	DefaultQueryTimeout = 10 * time.Second
)

// SerpAPIOptions configures the SerpAPI client.
type SerpAPIOptions struct {
	Endpoint   string
	Engine     string
	NumResults int
	Timeout    time.Duration
	// RequestsPerSecond paces outgoing calls to stay under the account quota. Zero disables pacing.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Verbose           bool
}

// DefaultSerpAPIOptions returns the options used in production.
func DefaultSerpAPIOptions() *SerpAPIOptions {
	return &SerpAPIOptions{
		Endpoint:   DefaultSerpAPIEndpoint,
		Engine:     DefaultEngine,
		NumResults: DefaultNumResults,
		Timeout:    DefaultQueryTimeout,
	}
}

// SerpAPIClient queries SerpAPI with one GET request per query.
type SerpAPIClient struct {
	apiKey   string
	endpoint string
	engine   string
	num      int
	client   *http.Client
	limiter  *rate.Limiter
	verbose  bool
}

// NewSerpAPIClient creates a SerpAPI client. The API key is required.
func NewSerpAPIClient(apiKey string, opts *SerpAPIOptions) (*SerpAPIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("SerpAPI key is required")
	}
	if opts == nil {
		opts = DefaultSerpAPIOptions()
	}

	c := &SerpAPIClient{
		apiKey:   apiKey,
		endpoint: opts.Endpoint,
		engine:   opts.Engine,
		num:      opts.NumResults,
		client:   opts.HTTPClient,
		verbose:  opts.Verbose,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultSerpAPIEndpoint
	}
	if c.engine == "" {
		c.engine = DefaultEngine
	}
	if c.num <= 0 {
		c.num = DefaultNumResults
	}
	if c.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultQueryTimeout
		}
		c.client = &http.Client{Timeout: timeout}
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c, nil
}

// Name returns the provider identifier
func (c *SerpAPIClient) Name() string {
	return "serpapi"
}

// Search runs one query. It never retries; failures are returned as
// *ProviderTransportError or *ProviderDataError.
func (c *SerpAPIClient) Search(ctx context.Context, query string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &ProviderTransportError{Provider: c.Name(), Query: query, Message: "rate limiter wait aborted", Cause: err}
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("engine", c.engine)
	params.Set("num", strconv.Itoa(c.num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ProviderTransportError{Provider: c.Name(), Query: query, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	if c.verbose {
		log.Printf("[SEARCH] serpapi query: %q", query)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ProviderTransportError{Provider: c.Name(), Query: query, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderTransportError{Provider: c.Name(), Query: query, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "unexpected HTTP status"
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return nil, &ProviderTransportError{Provider: c.Name(), Query: query, StatusCode: resp.StatusCode, Message: msg}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ProviderDataError{Provider: c.Name(), Query: query, Message: "malformed JSON response", Cause: err}
	}
	if out.Error != "" {
		return nil, &ProviderDataError{Provider: c.Name(), Query: query, Message: out.Error}
	}

	return &out, nil
}
