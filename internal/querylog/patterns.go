package querylog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	defaultTopPatterns = 10
	maxTopPatterns     = 100
)

// PatternStat is a normalized query shape and how many logs share it.
type PatternStat struct {
	Pattern     string `json:"pattern"`
	Occurrences int64  `json:"occurrences"`
}

// Literal replacements applied by NormalizeQuery, in order: strings first so
// digits inside them are not matched twice.
var (
	stringLitRE = regexp.MustCompile(`'(?:[^']|'')*'`)
	uuidRE      = regexp.MustCompile(`\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	dateTimeRE  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[ t]\d{2}:\d{2}:\d{2}(?:\.\d+)?)?\b`)
	numberRE    = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	spaceRE     = regexp.MustCompile(`\s+`)
)

// NormalizeQuery lowercases sql and replaces string, UUID, date and numeric
// literals with '?' so queries differing only in parameters compare equal.
func NormalizeQuery(sql string) string {
	s := strings.ToLower(sql)
	s = stringLitRE.ReplaceAllString(s, "?")
	s = uuidRE.ReplaceAllString(s, "?")
	s = dateTimeRE.ReplaceAllString(s, "?")
	s = numberRE.ReplaceAllString(s, "?")
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

// TopPatterns counts normalized patterns and returns the n most frequent,
// ties broken by pattern text.
func TopPatterns(queries []string, n int) []PatternStat {
	counts := make(map[string]int64)
	for _, q := range queries {
		if p := NormalizeQuery(q); p != "" {
			counts[p]++
		}
	}
	out := make([]PatternStat, 0, len(counts))
	for p, c := range counts {
		out = append(out, PatternStat{Pattern: p, Occurrences: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Pattern < out[j].Pattern
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func clampTopPatterns(n int) int {
	if n <= 0 {
		return defaultTopPatterns
	}
	if n > maxTopPatterns {
		return maxTopPatterns
	}
	return n
}

// topPatterns normalizes in Go so the report works on PostgreSQL and SQLite alike.
func (r *Repository) topPatterns(ctx context.Context, f ReportFilter) ([]PatternStat, error) {
	var texts []string
	if err := applyFilters(r.db.WithContext(ctx).Model(&QueryLog{}), f).
		Pluck("query_text", &texts).Error; err != nil {
		return nil, fmt.Errorf("load query texts: %w", err)
	}
	return TopPatterns(texts, f.TopPatterns), nil
}
