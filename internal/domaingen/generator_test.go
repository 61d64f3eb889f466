package domaingen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m1227sasaki/company-enrichment/internal/model"
)

func TestNameIsDomain(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantURL string
	}{
		{"bare com", "acme.com", "https://www.acme.com"},
		{"mixed case lowered", "Acme.COM", "https://www.acme.com"},
		{"io domain", "digit.io", "https://www.digit.io"},
		{"co.uk", "widgets.co.uk", "https://www.widgets.co.uk"},
		{"plain name", "Acme Robotics Inc", ""},
		{"name with embedded domain", "Acme (acme.com)", ""},
		{"blocked host", "linkedin.com", ""},
		{"blocked host subdomain", "uk.linkedin.com", ""},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NameIsDomain(tc.in)
			if tc.wantURL == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.wantURL, got.URL)
			assert.Equal(t, model.StageNameEmbeddedDomain, got.Stage)
			assert.Equal(t, 1.0, got.Confidence)
		})
	}
}

func TestEmbeddedDomain(t *testing.T) {
	assert.Equal(t, "https://acme.com", EmbeddedDomain("Acme Holdings (acme.com)"))
	assert.Equal(t, "", EmbeddedDomain("Acme Robotics Inc"))
	// Embedded blocked domains stay rejected.
	assert.Equal(t, "", EmbeddedDomain("Acme via linkedin.com"))
}

func TestVariations(t *testing.T) {
	got := Variations("Acme Robotics Inc")
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), MaxVariations)

	// Full concatenation with the first TLD comes first.
	assert.Equal(t, "https://www.acmerobotics.com", got[0].URL)

	for _, c := range got {
		assert.Equal(t, model.StageDomainVariation, c.Stage)
		assert.True(t, strings.HasPrefix(c.URL, "https://www."))
	}

	// Shorter bases still appear within the cap.
	var sawFirstToken bool
	for _, c := range got {
		if strings.Contains(c.URL, "//www.acme.") {
			sawFirstToken = true
		}
	}
	assert.True(t, sawFirstToken, "first-token base should appear in variations")
}

func TestVariationsDeduplicatesBases(t *testing.T) {
	// Single-token name: full concat, first token and raw concat collapse.
	got := Variations("Zapier")
	seen := map[string]bool{}
	for _, c := range got {
		assert.False(t, seen[c.URL], "duplicate candidate %s", c.URL)
		seen[c.URL] = true
	}
}

func TestVariationsSkipBlockedDomains(t *testing.T) {
	// "Face Book" concatenates to facebook, colliding with a blocked host.
	got := Variations("Face Book")
	require.NotEmpty(t, got)
	for _, c := range got {
		assert.NotContains(t, c.URL, "facebook.com")
	}
}

func TestVariationsEmptyName(t *testing.T) {
	assert.Nil(t, Variations(""))
}
