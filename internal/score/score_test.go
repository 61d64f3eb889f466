package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m1227sasaki/company-enrichment/internal/model"
)

func TestTitleKeyword(t *testing.T) {
	tests := []struct {
		name  string
		comp  string
		title string
		want  float64
	}{
		{
			name:  "all keywords present",
			comp:  "Acme Robotics Inc",
			title: "Acme Robotics – Home",
			want:  1.0,
		},
		{
			name:  "half the keywords present",
			comp:  "Acme Robotics Inc",
			title: "Acme Industrial Supply",
			want:  0.5,
		},
		{
			name:  "case insensitive",
			comp:  "Acme Robotics Inc",
			title: "ACME ROBOTICS | AUTOMATION",
			want:  1.0,
		},
		{
			name:  "no title",
			comp:  "Acme Robotics Inc",
			title: "",
			want:  0,
		},
		{
			name:  "short keywords excluded",
			comp:  "AB CD Ventures",
			title: "ab cd",
			want:  0,
		},
		{
			name:  "no overlap",
			comp:  "Acme Robotics",
			title: "Welcome to Widget World",
			want:  0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, TitleKeyword(tc.comp, tc.title), 1e-9)
		})
	}
}

func TestDomainSimilarity(t *testing.T) {
	t.Run("exact concatenation", func(t *testing.T) {
		s := DomainSimilarity("Acme Robotics Inc", "https://www.acmerobotics.com")
		assert.InDelta(t, 1.0, s, 1e-9)
	})

	t.Run("tld domain hack", func(t *testing.T) {
		// "digital" matches via 5-char prefix, "biology" via the TLD word.
		s := DomainSimilarity("Digital Biology Inc", "https://digit.bio")
		assert.GreaterOrEqual(t, s, 0.7)
	})

	t.Run("partial prefix", func(t *testing.T) {
		s := DomainSimilarity("Consolidated Freight Lines", "https://consfreight.com")
		assert.Greater(t, s, 0.0)
		assert.Less(t, s, 1.0)
	})

	t.Run("unrelated domain", func(t *testing.T) {
		s := DomainSimilarity("Acme Robotics", "https://www.zebrafish.org")
		assert.InDelta(t, 0.0, s, 1e-9)
	})

	t.Run("no scorable keywords is neutral", func(t *testing.T) {
		s := DomainSimilarity("AB Co", "https://ab.com")
		assert.InDelta(t, 0.5, s, 1e-9)
	})

	t.Run("capped at one", func(t *testing.T) {
		s := DomainSimilarity("Blue Bird", "https://bluebird.com")
		assert.LessOrEqual(t, s, 1.0)
	})
}

func TestCrossValidate(t *testing.T) {
	mk := func(url string, stage model.Stage, conf float64) model.ScoredCandidate {
		return model.ScoredCandidate{
			Candidate:  model.Candidate{URL: url, Stage: stage},
			Confidence: conf,
		}
	}

	t.Run("two stages agree despite low scores", func(t *testing.T) {
		got, ok := CrossValidate([]model.ScoredCandidate{
			mk("https://www.widgetco.com", model.StageOfficialSiteSearch, 0.2),
			mk("http://widgetco.com", model.StageLinkedInProfile, 0.3),
		}, 2)
		require.True(t, ok)
		assert.Equal(t, "https://www.widgetco.com", got.URL)
	})

	t.Run("same stage twice does not count", func(t *testing.T) {
		_, ok := CrossValidate([]model.ScoredCandidate{
			mk("https://www.widgetco.com", model.StageCompanySearch, 0.9),
			mk("https://widgetco.com", model.StageCompanySearch, 0.9),
		}, 2)
		assert.False(t, ok)
	})

	t.Run("different domains never agree", func(t *testing.T) {
		_, ok := CrossValidate([]model.ScoredCandidate{
			mk("https://widgetco.com", model.StageCompanySearch, 0.9),
			mk("https://widgetco.io", model.StageLinkedInProfile, 0.9),
		}, 2)
		assert.False(t, ok)
	})

	t.Run("empty input", func(t *testing.T) {
		_, ok := CrossValidate(nil, 2)
		assert.False(t, ok)
	})
}

func TestBest(t *testing.T) {
	assert.Nil(t, Best(nil))

	cands := []model.ScoredCandidate{
		{Candidate: model.Candidate{URL: "https://a.com"}, Confidence: 0.3},
		{Candidate: model.Candidate{URL: "https://b.com"}, Confidence: 0.7},
		{Candidate: model.Candidate{URL: "https://c.com"}, Confidence: 0.7},
	}
	// Highest confidence wins; ties break toward the earlier candidate.
	assert.Equal(t, "https://b.com", Best(cands).URL)
}
