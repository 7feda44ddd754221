package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, 14, c.Len())

	assert.Equal(t, []CompetitorRecord{
		{Name: "Samsung", URL: "https://www.samsung.com"},
		{Name: "OnePlus", URL: "https://www.oneplus.in"},
		{Name: "Google", URL: "https://store.google.com"},
	}, c.Lookup("apple"))

	assert.Equal(t, "https://music.apple.com", c.Lookup("SPOTIFY")[0].URL)
	assert.Nil(t, c.Lookup("unknownbrand123"))
}

func TestCatalog_LookupReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	records := c.Lookup("nike")
	records[0].Name = "Mutated"
	assert.Equal(t, "Adidas", c.Lookup("nike")[0].Name)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	_, err := LoadCatalog([]byte(`{"companies": {"acme": [{"name": "Widgets", "url": "widgets.com"}]}}`))
	assert.Error(t, err)

	_, err = LoadCatalog([]byte(`not json`))
	assert.Error(t, err)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	doc := `{"companies": {"acme": [
		{"name": "Globex", "url": "https://www.globex.com"},
		{"name": "Initech", "url": "https://www.initech.com"},
		{"name": "Umbrella", "url": "https://www.umbrella.com"}
	]}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	c, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Lookup("acme"), 3)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders()
	require.Len(t, got, 3)
	for i, name := range []string{"Competitor A", "Competitor B", "Competitor C"} {
		assert.Equal(t, name, got[i].Name)
		assert.Equal(t, PlaceholderURL, got[i].URL)
	}
}
