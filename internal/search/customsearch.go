package search

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// CustomSearchOptions configures the Google Programmable Search client.
type CustomSearchOptions struct {
	// Endpoint overrides the API base URL (tests)
	Endpoint   string
	NumResults int64
}

// CustomSearchClient queries Google Programmable Search. It only returns organic
// results, so discovery pairs it with the snippet-token extraction strategy.
type CustomSearchClient struct {
	svc *customsearch.Service
	cx  string
	num int64
}

// NewCustomSearchClient creates a Programmable Search client for engine cx.
func NewCustomSearchClient(ctx context.Context, apiKey, cx string, opts *CustomSearchOptions) (*CustomSearchClient, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("custom search requires both API key and engine ID")
	}
	if opts == nil {
		opts = &CustomSearchOptions{}
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}

	num := opts.NumResults
	if num <= 0 || num > 10 {
		num = 10 // API maximum
	}

	return &CustomSearchClient{svc: svc, cx: cx, num: num}, nil
}

// Name returns the provider identifier
func (c *CustomSearchClient) Name() string {
	return "customsearch"
}

// OrganicOnly reports that results carry organic items only.
func (c *CustomSearchClient) OrganicOnly() bool {
	return true
}

// Search runs one Programmable Search query and maps items to organic results.
func (c *CustomSearchClient) Search(ctx context.Context, query string) (*Response, error) {
	resp, err := c.svc.Cse.List().Cx(c.cx).Q(query).Num(c.num).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderTransportError{Provider: c.Name(), Query: query, StatusCode: apiErr.Code, Message: apiErr.Message, Cause: err}
		}
		return nil, &ProviderTransportError{Provider: c.Name(), Query: query, Message: "search failed", Cause: err}
	}
	if resp == nil {
		return nil, &ProviderDataError{Provider: c.Name(), Query: query, Message: "empty response"}
	}

	out := &Response{OrganicResults: make([]OrganicResult, 0, len(resp.Items))}
	for i, item := range resp.Items {
		out.OrganicResults = append(out.OrganicResults, OrganicResult{
			Position: i + 1,
			Title:    item.Title,
			Link:     item.Link,
			Snippet:  item.Snippet,
		})
	}
	return out, nil
}
