package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
)

func TestRecord_NaturalKeyIdentifier(t *testing.T) {
	rec := sources.Record{
		NaturalID: "2301.00001v2",
		Title:     "Cash Forecasting",
		Authors:   []string{"A. Author", "B. Author"},
		URL:       " https://arxiv.org/abs/2301.00001 ",
	}

	result := Record(rec, domain.SourceTypeArXiv, 0)

	assert.Equal(t, "2301.00001v2", result.ID)
	assert.Equal(t, domain.SourceTypeArXiv, result.Source)
	assert.Equal(t, "A. Author; B. Author", result.Authors)
	assert.Equal(t, "https://arxiv.org/abs/2301.00001", result.URL)
}

func TestRecord_SynthesizedIdentifier(t *testing.T) {
	rec := sources.Record{Title: "Untracked Paper"}

	result := Record(rec, domain.SourceTypeGoogleScholar, 3)

	assert.Equal(t, "google_scholar_3", result.ID)
}

func TestRecord_ArxivCollapsesWhitespace(t *testing.T) {
	rec := sources.Record{
		NaturalID: "2301.00002",
		Title:     "  Liquidity\n  Management in\n  Corporate Treasury  ",
		Abstract:  "We study\n  short-term funding.\n",
	}

	result := Record(rec, domain.SourceTypeArXiv, 0)

	assert.Equal(t, "Liquidity Management in Corporate Treasury", result.Title)
	assert.Equal(t, "We study short-term funding.", result.Abstract)
}

func TestRecord_CrossrefAbstractFallback(t *testing.T) {
	t.Run("missing abstract falls back to venue", func(t *testing.T) {
		rec := sources.Record{
			DOI:     "10.1000/xyz",
			Title:   "Working Capital",
			Journal: "Journal of Corporate Finance",
		}

		result := Record(rec, domain.SourceTypeCrossref, 0)
		assert.Equal(t, "Published in: Journal of Corporate Finance", result.Abstract)
	})

	t.Run("present abstract is kept", func(t *testing.T) {
		rec := sources.Record{
			DOI:      "10.1000/xyz",
			Abstract: "An abstract.",
			Journal:  "Journal of Corporate Finance",
		}

		result := Record(rec, domain.SourceTypeCrossref, 0)
		assert.Equal(t, "An abstract.", result.Abstract)
	})

	t.Run("no abstract and no venue stays empty", func(t *testing.T) {
		rec := sources.Record{DOI: "10.1000/xyz"}

		result := Record(rec, domain.SourceTypeCrossref, 0)
		assert.Empty(t, result.Abstract)
	})
}

func TestRecord_CopiesExtras(t *testing.T) {
	rec := sources.Record{
		NaturalID: "id",
		Extras:    map[string]string{"citations": "42"},
	}

	result := Record(rec, domain.SourceTypeScopus, 0)

	assert.Equal(t, "42", result.Extras["citations"])

	// Mutating the input must not leak into the result.
	rec.Extras["citations"] = "0"
	assert.Equal(t, "42", result.Extras["citations"])
}

func TestRecords_PreservesOrderAndOrdinals(t *testing.T) {
	recs := []sources.Record{
		{Title: "first"},
		{NaturalID: "10.1/abc", Title: "second"},
		{Title: "third"},
	}

	results := Records(recs, domain.SourceTypeResearchGate)

	assert.Len(t, results, 3)
	assert.Equal(t, "researchgate_0", results[0].ID)
	assert.Equal(t, "10.1/abc", results[1].ID)
	assert.Equal(t, "researchgate_2", results[2].ID)
}

func TestRecords_Empty(t *testing.T) {
	assert.Empty(t, Records(nil, domain.SourceTypeArXiv))
}
