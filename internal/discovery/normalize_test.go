package discovery

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		label     string
		canonical string
	}{
		{"Bare domain", "apple.com", "apple", "https://apple.com"},
		{"With www", "www.apple.com", "apple", "https://www.apple.com"},
		{"Full URL with path", "https://www.nike.com/in/shoes", "nike", "https://www.nike.com"},
		{"HTTP scheme", "http://tesla.com", "tesla", "http://tesla.com"},
		{"Uppercase scheme", "HTTPS://Netflix.com", "netflix", "https://netflix.com"},
		{"Port dropped", "localhost:8080", "localhost", "https://localhost"},
		{"Subdomain", "https://music.spotify.com", "music", "https://music.spotify.com"},
		{"Name only", "Starbucks", "starbucks", "https://starbucks"},
		{"Surrounding whitespace", "  bmw.com  ", "bmw", "https://bmw.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.label, id.RootLabel)
			assert.Equal(t, tt.canonical, id.CanonicalURL)
			assert.Equal(t, tt.input, id.RawInput)
		})
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := Normalize(input)
		var invalid *InvalidInputError
		require.True(t, errors.As(err, &invalid), "input %q", input)
	}
}

func TestNormalize_EmptyLabel(t *testing.T) {
	for _, input := range []string{"www.", "https://.com", ".example.org"} {
		_, err := Normalize(input)
		var invalid *InvalidInputError
		require.True(t, errors.As(err, &invalid), "input %q", input)
		assert.Equal(t, "could not derive a company name", invalid.Message)
	}
}

func TestNormalize_LabelProperties(t *testing.T) {
	inputs := []string{
		"apple.com", "WWW.SAMSUNG.COM", "https://www.www.example.co.uk", "oneplus.in/", "x",
		"http://Sub.Domain.Org:443/path?q=1", "costa.co.uk", "https://www.mcdonalds.com",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			id, err := Normalize(input)
			require.NoError(t, err)
			assert.Equal(t, strings.ToLower(id.RootLabel), id.RootLabel)
			assert.False(t, strings.HasPrefix(id.RootLabel, "www."))
			assert.NotContains(t, id.RootLabel, ".")
			assert.NotEmpty(t, id.RootLabel)
		})
	}
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "oneplus.in", hostOf("https://www.OnePlus.in/phones"))
	assert.Equal(t, "mi.com", hostOf("mi.com"))
	assert.Equal(t, "", hostOf(""))
}
