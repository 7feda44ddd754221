package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/competitor-analyzer/internal/analysis"
	"github.com/jonathan/competitor-analyzer/internal/config"
	"github.com/jonathan/competitor-analyzer/internal/db"
	"github.com/jonathan/competitor-analyzer/internal/discovery"
	"github.com/jonathan/competitor-analyzer/internal/fetch"
	"github.com/jonathan/competitor-analyzer/internal/llm"
	"github.com/jonathan/competitor-analyzer/internal/search"
)

// loadConfig reads the environment plus the optional --config file. The --verbose flag
// turns verbose output on but never off.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// deps holds everything a command needs. Fields are nil when the command did not ask
// for them or the configuration leaves them disabled.
type deps struct {
	cfg        *config.Config
	searcher   search.Provider
	database   *db.DB
	extractor  *fetch.ContentExtractor
	discoverer *discovery.Discoverer
	llmClient  llm.Client
	service    *analysis.Service
}

// buildDeps wires search, discovery, the page cache and extraction. When withLLM is set
// it also builds the LLM client and the analysis service.
func buildDeps(ctx context.Context, cfg *config.Config, withLLM bool) (*deps, error) {
	d := &deps{cfg: cfg}

	searcher, err := newSearchProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d.searcher = searcher

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		d.database = database
	}

	extractorOpts := &fetch.ExtractorOptions{Verbose: cfg.Verbose}
	if d.database != nil {
		extractorOpts.Cache = d.database
	}
	if cfg.UseBrowser {
		extractorOpts.Renderer = fetch.NewChromeRenderer(cfg.Verbose)
	}
	d.extractor = fetch.NewContentExtractor(extractorOpts)

	opts := discovery.Options{
		Searcher:     searcher,
		Policy:       cfg.Policy(),
		QueryTimeout: time.Duration(cfg.SearchTimeout),
		Describer:    d.extractor,
		Verbose:      cfg.Verbose,
	}
	if cfg.CatalogPath != "" {
		catalog, err := discovery.LoadCatalogFile(cfg.CatalogPath)
		if err != nil {
			d.Close()
			return nil, err
		}
		opts.Catalog = catalog
	}
	d.discoverer = discovery.New(opts)

	if !withLLM {
		return d, nil
	}

	llmConfig := llm.ConfigFor(cfg.Provider())
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, cfg.Model)
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.LLMAPIKey())
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	d.llmClient = client
	d.service = analysis.NewService(d.discoverer, d.extractor, analysis.NewSynthesizer(client))

	return d, nil
}

// newSearchProvider prefers SerpAPI, then Programmable Search. It returns nil when
// neither is configured; discovery then answers from the catalog.
func newSearchProvider(ctx context.Context, cfg *config.Config) (search.Provider, error) {
	switch {
	case cfg.SerpAPIKey != "":
		opts := search.DefaultSerpAPIOptions()
		opts.Timeout = time.Duration(cfg.SearchTimeout)
		opts.RequestsPerSecond = cfg.SearchRPS
		opts.Verbose = cfg.Verbose
		client, err := search.NewSerpAPIClient(cfg.SerpAPIKey, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	case cfg.GoogleCSEAPIKey != "" && cfg.GoogleCSECX != "":
		client, err := search.NewCustomSearchClient(ctx, cfg.GoogleCSEAPIKey, cfg.GoogleCSECX, nil)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, nil
	}
}

// searchName is the provider name reported by /health.
func (d *deps) searchName() string {
	if d.searcher == nil {
		return ""
	}
	return d.searcher.Name()
}

// Close releases the LLM client and the database pool.
func (d *deps) Close() {
	if d.llmClient != nil {
		if err := d.llmClient.Close(); err != nil {
			log.Printf("[ANALYSIS] failed to close LLM client: %v", err)
		}
	}
	if d.database != nil {
		d.database.Close()
	}
}
