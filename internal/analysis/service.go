package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/competitor-analyzer/internal/discovery"
)

// DefaultExtractConcurrency bounds parallel competitor page fetches.
const DefaultExtractConcurrency = 3

// Discoverer finds competitors for a company. *discovery.Discoverer implements it.
type Discoverer interface {
	Discover(ctx context.Context, raw string) (*discovery.Result, error)
}

// ContentFetcher returns cleaned page text and never fails. *fetch.ContentExtractor implements it.
type ContentFetcher interface {
	FetchAndClean(ctx context.Context, url string) string
}

// ReportWriter synthesizes the report. *Synthesizer implements it.
type ReportWriter interface {
	Synthesize(ctx context.Context, companyURL string, competitors []CompetitorContent) (*Report, error)
}

// Service runs the discover, extract, synthesize pipeline.
type Service struct {
	discoverer  Discoverer
	fetcher     ContentFetcher
	writer      ReportWriter
	concurrency int
}

// NewService creates a Service.
func NewService(discoverer Discoverer, fetcher ContentFetcher, writer ReportWriter) *Service {
	return &Service{
		discoverer:  discoverer,
		fetcher:     fetcher,
		writer:      writer,
		concurrency: DefaultExtractConcurrency,
	}
}

// Discover runs discovery only.
func (s *Service) Discover(ctx context.Context, companyURL string) (*discovery.Result, error) {
	return s.discoverer.Discover(ctx, companyURL)
}

// Analyze runs the full pipeline for companyURL. Errors are *discovery.InvalidInputError,
// *NoCompetitorsFoundError, *SynthesisError or a context error.
func (s *Service) Analyze(ctx context.Context, companyURL string, onProgress ProgressCallback) (*Result, error) {
	companyURL = strings.TrimSpace(companyURL)

	emit(onProgress, StepDiscovering, fmt.Sprintf("Finding competitors for %s", companyURL), nil)
	found, err := s.discoverer.Discover(ctx, companyURL)
	if err != nil {
		return nil, err
	}
	if len(found.Competitors) == 0 {
		return nil, &NoCompetitorsFoundError{CompanyURL: companyURL}
	}
	log.Printf("[ANALYSIS] %d competitors for %s (tier %s)", len(found.Competitors), companyURL, found.Tier)

	emit(onProgress, StepExtracting, fmt.Sprintf("Extracting content from %d competitor sites", len(found.Competitors)), found.Competitors)
	contents, err := s.ExtractAll(ctx, found.Competitors)
	if err != nil {
		return nil, err
	}

	emit(onProgress, StepAnalyzing, "Generating analysis", nil)
	report, err := s.writer.Synthesize(ctx, companyURL, contents)
	if err != nil {
		return nil, err
	}

	return &Result{
		CompanyURL:      companyURL,
		Competitors:     contents,
		Recommendations: report,
		Tier:            string(found.Tier),
	}, nil
}

// ExtractAll fetches every competitor's content in parallel, preserving input order.
// Individual fetch failures become placeholder text; only cancellation is an error.
func (s *Service) ExtractAll(ctx context.Context, competitors []discovery.CompetitorRecord) ([]CompetitorContent, error) {
	contents := make([]CompetitorContent, len(competitors))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range competitors {
		g.Go(func() error {
			contents[i] = CompetitorContent{
				Name:    c.Name,
				URL:     c.URL,
				Content: s.fetcher.FetchAndClean(gCtx, c.URL),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return contents, nil
}
