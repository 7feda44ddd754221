package discovery

import "strings"

// MaxCompetitors is the size cap of every competitor set.
const MaxCompetitors = 3

// CompetitorRecord is an admitted competitor. Records are never modified once created.
type CompetitorRecord struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Rejection explains why the filter refused a candidate.
type Rejection string

const (
	Admitted          Rejection = ""
	RejectBlacklisted Rejection = "blacklisted"
	RejectSelf        Rejection = "self"
	RejectSeen        Rejection = "duplicate"
	RejectTooShort    Rejection = "too short"
	RejectFull        Rejection = "set full"
)

// filterCheck is one admission rule. Rules run in order and the first hit rejects.
type filterCheck struct {
	reason Rejection
	hit    func(f *Filter, c Candidate, key string) bool
}

var filterChecks = []filterCheck{
	{RejectBlacklisted, func(f *Filter, _ Candidate, key string) bool { return f.blacklist.Contains(key) }},
	{RejectSelf, func(f *Filter, _ Candidate, key string) bool { return key == f.rootLabel }},
	{RejectSeen, func(f *Filter, _ Candidate, key string) bool { _, ok := f.seen[key]; return ok }},
	{RejectTooShort, func(_ *Filter, c Candidate, _ string) bool {
		return len(strings.TrimSpace(c.Name)) < c.Mode.MinNameLength()
	}},
}

// Filter admits candidates into a competitor set for one request. It is not safe for
// concurrent use; each discovery request owns its own Filter.
type Filter struct {
	rootLabel string
	blacklist *Blacklist
	seen      map[string]struct{}
	admitted  []CompetitorRecord
}

// NewFilter creates a filter for the seed company's root label.
func NewFilter(rootLabel string, blacklist *Blacklist) *Filter {
	if blacklist == nil {
		blacklist = DefaultBlacklist()
	}
	root := strings.ToLower(rootLabel)
	return &Filter{
		rootLabel: root,
		blacklist: blacklist,
		seen:      map[string]struct{}{root: {}},
	}
}

// Consider applies the admission rules to c and admits it when none reject.
func (f *Filter) Consider(c Candidate) Rejection {
	if f.Full() {
		return RejectFull
	}
	name := strings.TrimSpace(c.Name)
	key := strings.ToLower(name)

	for _, check := range filterChecks {
		if check.hit(f, c, key) {
			if check.reason == RejectBlacklisted {
				f.seen[key] = struct{}{}
			}
			return check.reason
		}
	}

	f.seen[key] = struct{}{}
	f.admitted = append(f.admitted, CompetitorRecord{Name: name, URL: c.URL})
	return Admitted
}

// Full reports whether the set reached MaxCompetitors.
func (f *Filter) Full() bool {
	return len(f.admitted) >= MaxCompetitors
}

// Len returns the number of admitted competitors.
func (f *Filter) Len() int {
	return len(f.admitted)
}

// Competitors returns a copy of the admitted set in admission order.
func (f *Filter) Competitors() []CompetitorRecord {
	out := make([]CompetitorRecord, len(f.admitted))
	copy(out, f.admitted)
	return out
}

// Blacklist is an immutable set of lowercase names that are never competitors.
type Blacklist struct {
	names map[string]struct{}
}

// NewBlacklist builds a blacklist; names are compared case-insensitively.
func NewBlacklist(names ...string) *Blacklist {
	b := &Blacklist{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			b.names[n] = struct{}{}
		}
	}
	return b
}

// Contains reports whether name is blacklisted.
func (b *Blacklist) Contains(name string) bool {
	_, ok := b.names[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Len returns the number of entries
func (b *Blacklist) Len() int {
	return len(b.names)
}

var defaultBlacklist = NewBlacklist(
	"google", "wikipedia", "facebook", "twitter", "linkedin", "youtube",
	"instagram", "reddit", "quora", "forbes", "bloomberg", "techcrunch",
	"crunchbase", "comparably", "owler", "zoominfo", "craft", "cbinsights",
	"g2", "capterra", "trustpilot", "yelp", "glassdoor", "indeed", "shopify",
	// fragments that the snippet patterns pick up from list items
	"image", "source", "below", "list",
)

// DefaultBlacklist returns the built-in blacklist.
func DefaultBlacklist() *Blacklist {
	return defaultBlacklist
}
