package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource []string

func (s staticSource) ColumnsAccessed(context.Context) ([]string, error) { return s, nil }

type failingSource struct{}

func (failingSource) ColumnsAccessed(context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestSuggestFirstSeenOrder(t *testing.T) {
	a := NewAnalyzer(staticSource{"a, b", "b,c"})
	got, err := a.Suggest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Consider adding an index on column 'a'",
		"Consider adding an index on column 'b'",
		"Consider adding an index on column 'c'",
	}, got)
}

func TestSuggestSkipsEmptyTokens(t *testing.T) {
	a := NewAnalyzer(staticSource{" , ,", "id,,  name ,", ""})
	got, err := a.Suggest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{Suggestion("id"), Suggestion("name")}, got)
}

func TestSuggestIsCaseSensitive(t *testing.T) {
	a := NewAnalyzer(staticSource{"Email,email"})
	got, err := a.Suggest(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSuggestEmpty(t *testing.T) {
	got, err := NewAnalyzer(staticSource{}).Suggest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggestIdempotent(t *testing.T) {
	a := NewAnalyzer(staticSource{"x,y", "z", "y"})
	first, err := a.Suggest(context.Background())
	require.NoError(t, err)
	second, err := a.Suggest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSuggestSourceError(t *testing.T) {
	_, err := NewAnalyzer(failingSource{}).Suggest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestColumnsSortedWithCounts(t *testing.T) {
	a := NewAnalyzer(staticSource{"user_id, created_at", "user_id", "amount,user_id"})
	got, err := a.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ColumnStat{
		{Column: "amount", Count: 1},
		{Column: "created_at", Count: 1},
		{Column: "user_id", Count: 3},
	}, got)
}

func TestSuggestProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	names := []string{"id", "name", "email", "created_at", "status", "amount"}
	column := gen.IntRange(0, len(names)-1).Map(func(i int) string { return names[i] })
	row := gen.SliceOfN(3, column).Map(func(cols []string) string {
		return strings.Join(cols, " , ")
	})

	properties.Property("one suggestion per distinct column", prop.ForAll(
		func(rows []string) bool {
			got, err := NewAnalyzer(staticSource(rows)).Suggest(context.Background())
			if err != nil {
				return false
			}
			distinct := map[string]struct{}{}
			for _, r := range rows {
				for _, c := range strings.Split(r, ",") {
					distinct[strings.TrimSpace(c)] = struct{}{}
				}
			}
			seen := map[string]struct{}{}
			for _, s := range got {
				if _, dup := seen[s]; dup {
					return false
				}
				seen[s] = struct{}{}
			}
			return len(got) == len(distinct)
		},
		gen.SliceOf(row),
	))

	properties.Property("first suggestion names first column", prop.ForAll(
		func(rows []string) bool {
			got, err := NewAnalyzer(staticSource(rows)).Suggest(context.Background())
			if err != nil || len(got) == 0 {
				return false
			}
			first := strings.TrimSpace(strings.Split(rows[0], ",")[0])
			return got[0] == Suggestion(first)
		},
		gen.SliceOfN(4, row),
	))

	properties.Property("column counts sum to token count", prop.ForAll(
		func(rows []string) bool {
			stats, err := NewAnalyzer(staticSource(rows)).Columns(context.Background())
			if err != nil {
				return false
			}
			total := 0
			for i, s := range stats {
				total += s.Count
				if i > 0 && stats[i-1].Column >= s.Column {
					return false
				}
			}
			return total == 3*len(rows)
		},
		gen.SliceOf(row),
	))

	properties.TestingRun(t)
}
