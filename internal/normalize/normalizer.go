// Package normalize maps provisional source records into the canonical
// result schema. Normalization is pure and idempotent: the same record at
// the same position always yields an identical SearchResult.
package normalize

import (
	"fmt"
	"strings"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
)

// Record maps one provisional record to a canonical SearchResult. The
// ordinal is the record's position within its source's result sequence and
// is used to synthesize an identifier when the source supplies no natural
// key.
func Record(rec sources.Record, source domain.SourceType, ordinal int) domain.SearchResult {
	result := domain.SearchResult{
		ID:       identifier(rec, source, ordinal),
		Title:    title(rec, source),
		Source:   source,
		Authors:  strings.Join(rec.Authors, "; "),
		Abstract: abstract(rec, source),
		URL:      strings.TrimSpace(rec.URL),
		Date:     strings.TrimSpace(rec.Date),
		DOI:      strings.TrimSpace(rec.DOI),
		Journal:  strings.TrimSpace(rec.Journal),
	}

	if len(rec.Extras) > 0 {
		extras := make(map[string]string, len(rec.Extras))
		for k, v := range rec.Extras {
			extras[k] = v
		}
		result.Extras = extras
	}

	return result
}

// Records maps a whole source result sequence, preserving order.
func Records(recs []sources.Record, source domain.SourceType) []domain.SearchResult {
	results := make([]domain.SearchResult, len(recs))
	for i, rec := range recs {
		results[i] = Record(rec, source, i)
	}
	return results
}

// identifier picks the source's natural key when present, otherwise a
// positionally stable synthesized one.
func identifier(rec sources.Record, source domain.SourceType, ordinal int) string {
	if id := strings.TrimSpace(rec.NaturalID); id != "" {
		return id
	}
	return fmt.Sprintf("%s_%d", source, ordinal)
}

// title applies the source-specific title mapping. The XML feed wraps and
// indents titles, so the arXiv variant collapses line breaks; other
// sources only need trimming.
func title(rec sources.Record, source domain.SourceType) string {
	if source == domain.SourceTypeArXiv {
		return collapseWhitespace(rec.Title)
	}
	return strings.TrimSpace(rec.Title)
}

// abstract applies the source-specific abstract mapping. The XML feed
// wraps abstracts like titles; a missing Crossref abstract falls back to a
// synthesized venue string.
func abstract(rec sources.Record, source domain.SourceType) string {
	switch source {
	case domain.SourceTypeArXiv:
		return collapseWhitespace(rec.Abstract)
	case domain.SourceTypeCrossref:
		if strings.TrimSpace(rec.Abstract) == "" && strings.TrimSpace(rec.Journal) != "" {
			return "Published in: " + strings.TrimSpace(rec.Journal)
		}
	}
	return strings.TrimSpace(rec.Abstract)
}

// collapseWhitespace trims and collapses runs of whitespace, including
// line breaks, into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
