package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/competitor-analyzer/internal/search"
)

// DefaultQueryTimeout bounds each search call.
const DefaultQueryTimeout = 10 * time.Second

// Tier names the cascade stage that produced the final competitor set.
type Tier string

const (
	TierAPI         Tier = "api"
	TierCatalog     Tier = "catalog"
	TierPlaceholder Tier = "placeholder"
	TierNone        Tier = "none"
)

// AcceptPolicy decides whether a partial search result is final.
type AcceptPolicy string

const (
	// AcceptPartial returns any non-empty search result as-is.
	AcceptPartial AcceptPolicy = "partial"
	// RequireFull only accepts a search result with MaxCompetitors entries and
	// otherwise discards it in favor of the catalog.
	RequireFull AcceptPolicy = "full"
)

// ParseAcceptPolicy accepts "partial"/"generous" and "full"/"strict". Empty means AcceptPartial.
func ParseAcceptPolicy(s string) (AcceptPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "partial", "generous":
		return AcceptPartial, nil
	case "full", "strict":
		return RequireFull, nil
	default:
		return "", fmt.Errorf("unknown discovery policy %q (use partial or full)", s)
	}
}

func (p AcceptPolicy) accepts(n int) bool {
	if p == RequireFull {
		return n >= MaxCompetitors
	}
	return n > 0
}

// OutcomeKind classifies a single search call.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeTransportFailure
	OutcomeDataFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeTransportFailure:
		return "transport_failure"
	case OutcomeDataFailure:
		return "data_failure"
	default:
		return "unknown"
	}
}

// QueryOutcome records what one query produced. Failed queries are recorded here and skipped.
type QueryOutcome struct {
	Query      SearchQuery
	Kind       OutcomeKind
	Candidates int
	Admitted   int
	Err        error
}

// Describer fetches a short description of a company homepage for industry detection.
type Describer interface {
	Describe(ctx context.Context, url string) (string, error)
}

// Options configures a Discoverer. Nil fields take package defaults.
type Options struct {
	// Searcher is nil when no search credential is configured
	Searcher     search.Provider
	Strategies   []Strategy
	Catalog      *Catalog
	Blacklist    *Blacklist
	Policy       AcceptPolicy
	QueryTimeout time.Duration
	Describer    Describer
	// DisablePlaceholder lets discovery return an empty set instead of the generic placeholders
	DisablePlaceholder bool
	Verbose            bool
}

// Result is the outcome of one discovery request.
type Result struct {
	Company     CompanyIdentifier  `json:"company"`
	Competitors []CompetitorRecord `json:"competitors"`
	Tier        Tier               `json:"tier"`
	Keyword     string             `json:"keyword,omitempty"`
	Outcomes    []QueryOutcome     `json:"-"`
}

// Discoverer runs the competitor cascade. It holds only read-only state and is safe for
// concurrent use; every call builds its own filter.
type Discoverer struct {
	opts Options
}

// New creates a Discoverer.
func New(opts Options) *Discoverer {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Blacklist == nil {
		opts.Blacklist = DefaultBlacklist()
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = StrategiesFor(opts.Searcher)
	}
	if opts.Policy == "" {
		opts.Policy = AcceptPartial
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	return &Discoverer{opts: opts}
}

// Discover finds up to three competitors for raw. The only error is *InvalidInputError;
// search failures fall through to the catalog and placeholder tiers.
func (d *Discoverer) Discover(ctx context.Context, raw string) (*Result, error) {
	company, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	log.Printf("[DISCOVERY] Searching competitors for: %s", company.RootLabel)

	result := &Result{Company: company}

	if d.opts.Searcher != nil {
		result.Keyword = d.industryKeyword(ctx, company)
		competitors, outcomes := d.searchCascade(ctx, company, result.Keyword)
		result.Outcomes = outcomes
		if d.opts.Policy.accepts(len(competitors)) {
			log.Printf("[DISCOVERY] Found %d competitors via %s", len(competitors), d.opts.Searcher.Name())
			result.Competitors = competitors
			result.Tier = TierAPI
			return result, nil
		}
		log.Printf("[DISCOVERY] Search produced %d competitors (policy %s), using catalog", len(competitors), d.opts.Policy)
	} else if d.opts.Verbose {
		log.Printf("[DISCOVERY] No search credential configured, using catalog")
	}

	if records := d.opts.Catalog.Lookup(company.RootLabel); len(records) >= MaxCompetitors {
		log.Printf("[DISCOVERY] Using catalog competitors for %s", company.RootLabel)
		result.Competitors = records[:MaxCompetitors]
		result.Tier = TierCatalog
		return result, nil
	}

	if d.opts.DisablePlaceholder {
		log.Printf("[DISCOVERY] No competitors found for %s", company.RootLabel)
		result.Competitors = []CompetitorRecord{}
		result.Tier = TierNone
		return result, nil
	}

	log.Printf("[DISCOVERY] No specific competitors found for %s, using placeholders", company.RootLabel)
	result.Competitors = Placeholders()
	result.Tier = TierPlaceholder
	return result, nil
}

// searchCascade issues the planned queries one at a time until the set is full.
func (d *Discoverer) searchCascade(ctx context.Context, company CompanyIdentifier, keyword string) ([]CompetitorRecord, []QueryOutcome) {
	filter := NewFilter(company.RootLabel, d.opts.Blacklist)
	queries := PlanQueries(company.RootLabel, keyword)
	outcomes := make([]QueryOutcome, 0, len(queries))

	for _, q := range queries {
		if filter.Full() {
			break
		}
		if ctx.Err() != nil {
			log.Printf("[DISCOVERY] Request cancelled, skipping remaining queries")
			break
		}

		outcome := d.runQuery(ctx, q)
		if outcome.Kind != OutcomeOK {
			log.Printf("[DISCOVERY] Query %q failed (%s): %v", q.Text, outcome.Kind, outcome.Err)
			outcomes = append(outcomes, outcome.QueryOutcome)
			continue
		}

		for _, c := range outcome.candidates {
			if filter.Full() {
				break
			}
			verdict := filter.Consider(c)
			if verdict == Admitted {
				outcome.Admitted++
				log.Printf("[DISCOVERY] Found competitor from %s: %s", c.Mode, c.Name)
			} else if d.opts.Verbose {
				log.Printf("[DISCOVERY] Rejected %q: %s", c.Name, verdict)
			}
		}
		outcomes = append(outcomes, outcome.QueryOutcome)
	}

	return filter.Competitors(), outcomes
}

type queryRun struct {
	QueryOutcome
	candidates []Candidate
}

func (d *Discoverer) runQuery(ctx context.Context, q SearchQuery) queryRun {
	qctx, cancel := context.WithTimeout(ctx, d.opts.QueryTimeout)
	defer cancel()

	run := queryRun{QueryOutcome: QueryOutcome{Query: q}}
	resp, err := d.opts.Searcher.Search(qctx, q.Text)
	if err != nil {
		run.Err = err
		run.Kind = classify(err)
		return run
	}

	run.candidates = ExtractCandidates(d.opts.Strategies, resp)
	run.Candidates = len(run.candidates)
	run.Kind = OutcomeOK
	return run
}

func classify(err error) OutcomeKind {
	var dataErr *search.ProviderDataError
	if errors.As(err, &dataErr) {
		return OutcomeDataFailure
	}
	return OutcomeTransportFailure
}

func (d *Discoverer) industryKeyword(ctx context.Context, company CompanyIdentifier) string {
	if d.opts.Describer == nil {
		return ""
	}
	description, err := d.opts.Describer.Describe(ctx, company.CanonicalURL)
	if err != nil {
		log.Printf("[DISCOVERY] Company info lookup failed for %s: %v", company.CanonicalURL, err)
		return ""
	}
	keyword := ExtractIndustryKeyword(description)
	if keyword != "" {
		log.Printf("[DISCOVERY] Detected industry: %s", keyword)
	}
	return keyword
}
