package discovery

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jonathan/competitor-analyzer/internal/schemas"
)

//go:embed catalog.json
var defaultCatalogJSON []byte

// PlaceholderURL is the URL shared by every placeholder competitor.
const PlaceholderURL = "https://www.example.com"

// Catalog maps known company root labels to curated competitors. It is read-only after loading.
type Catalog struct {
	entries map[string][]CompetitorRecord
}

type catalogFile struct {
	Companies map[string][]CompetitorRecord `json:"companies"`
}

// LoadCatalog parses and validates a catalog document.
func LoadCatalog(data []byte) (*Catalog, error) {
	if err := schemas.ValidateCatalog(data); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{entries: make(map[string][]CompetitorRecord, len(file.Companies))}
	for label, records := range file.Companies {
		c.entries[strings.ToLower(label)] = records
	}
	return c, nil
}

// LoadCatalogFile reads a catalog override from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return LoadCatalog(data)
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the catalog compiled into the binary. It panics if the
// embedded document is invalid, which the package tests guard against.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := LoadCatalog(defaultCatalogJSON)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Lookup returns a copy of the curated competitors for a root label, or nil.
func (c *Catalog) Lookup(label string) []CompetitorRecord {
	records, ok := c.entries[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return nil
	}
	out := make([]CompetitorRecord, len(records))
	copy(out, records)
	return out
}

// Len returns the number of companies in the catalog
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Placeholders returns the generic set used when no other tier produced competitors.
func Placeholders() []CompetitorRecord {
	return []CompetitorRecord{
		{Name: "Competitor A", URL: PlaceholderURL},
		{Name: "Competitor B", URL: PlaceholderURL},
		{Name: "Competitor C", URL: PlaceholderURL},
	}
}
