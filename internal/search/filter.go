package search

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"tucan/internal/domain"
)

// Mode selects how a query is matched against entries
type Mode string

// Match modes
const (
	ModeSubstring Mode = "substring"
	ModeFuzzy     Mode = "fuzzy"
)

// Matcher reduces entries to the ones matching query, preserving order
type Matcher func(entries []domain.Entry, query string) []domain.Entry

// MatcherFor returns the matcher for a mode. Unknown modes fall back to substring.
func MatcherFor(mode Mode) Matcher {
	switch mode {
	case ModeFuzzy:
		return FilterFuzzy
	default:
		return Filter
	}
}

// Filter returns the entries whose title or meta contains query, ignoring case.
// An empty query returns a copy of all entries.
func Filter(entries []domain.Entry, query string) []domain.Entry {
	if query == "" {
		return append([]domain.Entry(nil), entries...)
	}

	lowerQuery := strings.ToLower(query)
	var result []domain.Entry
	for _, entry := range entries {
		if MatchesEntry(entry, lowerQuery) {
			result = append(result, entry)
		}
	}
	return result
}

// MatchesEntry checks an entry against an already lower-cased query
func MatchesEntry(entry domain.Entry, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(entry.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(entry.Meta), lowerQuery)
}

// FilterFuzzy is like Filter but accepts the query characters as an ordered
// subsequence of the title or meta, so "gtr" matches "git-repositories".
func FilterFuzzy(entries []domain.Entry, query string) []domain.Entry {
	if query == "" {
		return append([]domain.Entry(nil), entries...)
	}

	var result []domain.Entry
	for _, entry := range entries {
		if fuzzy.MatchFold(query, entry.Title) || fuzzy.MatchFold(query, entry.Meta) {
			result = append(result, entry)
		}
	}
	return result
}
