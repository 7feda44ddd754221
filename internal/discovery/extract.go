package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/competitor-analyzer/internal/search"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode identifies how a candidate was extracted. Each mode has its own minimum name length.
type Mode string

const (
	ModeStructuredSnippet Mode = "structured-snippet"
	ModeLinkDomain        Mode = "link-domain"
	ModeSnippetToken      Mode = "snippet-token"
	ModeCatalog           Mode = "catalog"
)

// MinNameLength is the shortest name the filter admits for this mode.
func (m Mode) MinNameLength() int {
	switch m {
	case ModeStructuredSnippet:
		return 3
	case ModeSnippetToken:
		return 4
	case ModeLinkDomain:
		return 2
	default:
		return 1
	}
}

// Candidate is a provisional competitor that has not been filtered yet.
type Candidate struct {
	Name string
	URL  string
	Mode Mode
}

// Strategy extracts candidates from one search response.
type Strategy interface {
	Name() Mode
	// Applies reports whether the response has the shape this strategy reads
	Applies(resp *search.Response) bool
	Extract(resp *search.Response) []Candidate
}

var (
	leadingNamePattern = regexp.MustCompile(`^([A-Za-z]+(?:\s+[A-Z][a-z]+)?)`)
	titleTokenPattern  = regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]+)?)\b`)
)

// ExtractCandidates runs every applicable strategy in priority order and concatenates the results.
func ExtractCandidates(strategies []Strategy, resp *search.Response) []Candidate {
	if resp == nil {
		return nil
	}
	var out []Candidate
	for _, s := range strategies {
		if s.Applies(resp) {
			out = append(out, s.Extract(resp)...)
		}
	}
	return out
}

// DefaultStrategies is the extraction order for providers that return rich result pages.
func DefaultStrategies() []Strategy {
	return []Strategy{&StructuredSnippet{}, NewLinkDomain(nil)}
}

// SimpleStrategies is used for providers that only return organic results.
func SimpleStrategies() []Strategy {
	return []Strategy{&SnippetToken{}}
}

// StrategiesFor picks the extraction order for a provider: SimpleStrategies when it
// reports search.OrganicOnly, DefaultStrategies otherwise.
func StrategiesFor(p search.Provider) []Strategy {
	if o, ok := p.(search.OrganicOnly); ok && o.OrganicOnly() {
		return SimpleStrategies()
	}
	return DefaultStrategies()
}

// dotComURL builds the https://www.{name}.com guess used when a source has no link.
func dotComURL(name string) string {
	return fmt.Sprintf("https://www.%s.com", strings.ReplaceAll(strings.ToLower(name), " ", ""))
}

// StructuredSnippet reads list-type featured answers and knowledge-panel entities.
// Items such as "eBay. Image Source: eBay" yield the leading name token.
type StructuredSnippet struct {
	// Excluded guards entity links; nil uses DefaultNonCompetitorDomains
	Excluded *DomainSet
}

func (s *StructuredSnippet) Name() Mode { return ModeStructuredSnippet }

func (s *StructuredSnippet) Applies(resp *search.Response) bool {
	if resp.HasListAnswer() {
		return true
	}
	return resp.KnowledgeGraph != nil && len(resp.KnowledgeGraph.PeopleAlsoSearchFor) > 0
}

func (s *StructuredSnippet) Extract(resp *search.Response) []Candidate {
	var out []Candidate
	for _, q := range resp.RelatedQuestions {
		if q.Type != search.RelatedQuestionFeaturedSnippet {
			continue
		}
		out = append(out, s.fromList(q.List)...)
	}
	if resp.AnswerBox != nil {
		out = append(out, s.fromList(resp.AnswerBox.List)...)
	}
	if resp.KnowledgeGraph != nil {
		excluded := s.Excluded
		if excluded == nil {
			excluded = DefaultNonCompetitorDomains()
		}
		for _, entity := range resp.KnowledgeGraph.PeopleAlsoSearchFor {
			name := leadingName(entity.Name)
			if name == "" {
				continue
			}
			link := dotComURL(name)
			if host := hostOf(entity.Link); host != "" && strings.HasPrefix(entity.Link, "http") && !excluded.Matches(host) {
				link = entity.Link
			}
			out = append(out, Candidate{Name: name, URL: link, Mode: ModeStructuredSnippet})
		}
	}
	return out
}

func (s *StructuredSnippet) fromList(items []string) []Candidate {
	var out []Candidate
	for _, item := range items {
		name := leadingName(item)
		if name == "" {
			continue
		}
		out = append(out, Candidate{Name: name, URL: dotComURL(name), Mode: ModeStructuredSnippet})
	}
	return out
}

func leadingName(item string) string {
	m := leadingNamePattern.FindStringSubmatch(strings.TrimSpace(item))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// LinkDomain names a candidate after the host of each organic result link.
// A cases.Caser is stateful, so Extract builds its own and the strategy stays
// safe to share between requests.
type LinkDomain struct {
	excluded *DomainSet
}

// NewLinkDomain creates the strategy. A nil set uses DefaultNonCompetitorDomains.
func NewLinkDomain(excluded *DomainSet) *LinkDomain {
	if excluded == nil {
		excluded = DefaultNonCompetitorDomains()
	}
	return &LinkDomain{excluded: excluded}
}

func (s *LinkDomain) Name() Mode { return ModeLinkDomain }

func (s *LinkDomain) Applies(resp *search.Response) bool {
	return len(resp.OrganicResults) > 0
}

func (s *LinkDomain) Extract(resp *search.Response) []Candidate {
	caser := cases.Title(language.English)
	var out []Candidate
	for _, result := range resp.OrganicResults {
		host := hostOf(result.Link)
		if host == "" || s.excluded.Matches(host) {
			continue
		}
		label := host
		if i := strings.Index(label, "."); i >= 0 {
			label = label[:i]
		}
		if label == "" {
			continue
		}
		out = append(out, Candidate{
			Name: caser.String(label),
			URL:  "https://" + host,
			Mode: ModeLinkDomain,
		})
	}
	return out
}

// SnippetToken picks capitalized words out of organic snippets,
// e.g. "include Walmart, eBay, Target" yields Walmart and Target.
type SnippetToken struct{}

func (s *SnippetToken) Name() Mode { return ModeSnippetToken }

func (s *SnippetToken) Applies(resp *search.Response) bool {
	return len(resp.OrganicResults) > 0
}

func (s *SnippetToken) Extract(resp *search.Response) []Candidate {
	var out []Candidate
	for _, result := range resp.OrganicResults {
		for _, m := range titleTokenPattern.FindAllStringSubmatch(result.Snippet, -1) {
			out = append(out, Candidate{Name: m[1], URL: dotComURL(m[1]), Mode: ModeSnippetToken})
		}
	}
	return out
}

// DomainSet is an immutable set of hosts that never represent a competitor:
// search engines, social and encyclopedic sites, review aggregators and app stores.
type DomainSet struct {
	domains map[string]struct{}
}

// NewDomainSet builds a set from registrable domains or full hosts.
func NewDomainSet(domains ...string) *DomainSet {
	set := &DomainSet{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			set.domains[d] = struct{}{}
		}
	}
	return set
}

// Matches reports whether host, or its registrable domain, is in the set.
func (s *DomainSet) Matches(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if _, ok := s.domains[host]; ok {
		return true
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	_, ok := s.domains[registrable]
	return ok
}

var defaultNonCompetitorDomains = NewDomainSet(
	"google.com", "bing.com", "duckduckgo.com", "yahoo.com",
	"wikipedia.org", "wikimedia.org", "britannica.com",
	"facebook.com", "twitter.com", "x.com", "linkedin.com", "youtube.com", "instagram.com",
	"reddit.com", "quora.com", "medium.com", "pinterest.com", "tiktok.com",
	"forbes.com", "bloomberg.com", "techcrunch.com", "businessinsider.com", "investopedia.com",
	"crunchbase.com", "comparably.com", "owler.com", "zoominfo.com", "craft.co", "cbinsights.com",
	"similarweb.com", "statista.com",
	"g2.com", "capterra.com", "getapp.com", "softwareadvice.com", "trustradius.com",
	"trustpilot.com", "yelp.com", "glassdoor.com", "indeed.com", "sitejabber.com",
	"apps.apple.com", "play.google.com", "apps.microsoft.com",
)

// DefaultNonCompetitorDomains returns the built-in set.
func DefaultNonCompetitorDomains() *DomainSet {
	return defaultNonCompetitorDomains
}
