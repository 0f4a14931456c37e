package querylog

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"numbers", "SELECT * FROM orders WHERE id = 42 AND total > 9.5", "select * from orders where id = ? and total > ?"},
		{"strings with escaped quote", "SELECT 1 FROM users WHERE name = 'O''Brien'", "select ? from users where name = ?"},
		{"uuid", "DELETE FROM s WHERE id = 3f2504e0-4f89-11d3-9a0c-0305e82c3301", "delete from s where id = ?"},
		{"datetime", "SELECT * FROM e WHERE at >= 2024-01-05 10:00:00.123", "select * from e where at >= ?"},
		{"date", "SELECT * FROM e WHERE day = 2024-01-05", "select * from e where day = ?"},
		{"identifiers keep digits", "SELECT c1 FROM t2", "select c1 from t2"},
		{"whitespace", "  SELECT\n\t*   FROM t  ", "select * from t"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeQuery(tc.in))
		})
	}
}

func TestTopPatterns(t *testing.T) {
	queries := []string{
		"SELECT * FROM users WHERE id = 1",
		"select * from users where id = 2",
		"SELECT * FROM users WHERE id = 3",
		"SELECT * FROM orders WHERE status = 'new'",
		"SELECT * FROM orders WHERE status = 'paid'",
		"SELECT COUNT(*) FROM events",
		"",
	}
	got := TopPatterns(queries, 0)
	assert.Equal(t, []PatternStat{
		{Pattern: "select * from users where id = ?", Occurrences: 3},
		{Pattern: "select * from orders where status = ?", Occurrences: 2},
		{Pattern: "select count(*) from events", Occurrences: 1},
	}, got)

	assert.Len(t, TopPatterns(queries, 2), 2)
	assert.Empty(t, TopPatterns(nil, 5))
}

func TestTopPatternsTieBreaksByPattern(t *testing.T) {
	got := TopPatterns([]string{"SELECT b", "SELECT a"}, 1)
	assert.Equal(t, []PatternStat{{Pattern: "select a", Occurrences: 1}}, got)
}

func TestClampTopPatterns(t *testing.T) {
	assert.Equal(t, defaultTopPatterns, clampTopPatterns(0))
	assert.Equal(t, 7, clampTopPatterns(7))
	assert.Equal(t, maxTopPatterns, clampTopPatterns(1000))
}

func TestNormalizeQueryProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	render := func(id int, name string) string {
		return fmt.Sprintf("SELECT * FROM orders WHERE id = %d AND name = '%s'", id, name)
	}

	properties.Property("literal values do not change the pattern", prop.ForAll(
		func(a, b int, s1, s2 string) bool {
			return NormalizeQuery(render(a, s1)) == NormalizeQuery(render(b, s2))
		},
		gen.IntRange(0, 1000000), gen.IntRange(0, 1000000), gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("normalizing twice is a no-op", prop.ForAll(
		func(id int, name string) bool {
			once := NormalizeQuery(render(id, name))
			return NormalizeQuery(once) == once
		},
		gen.IntRange(0, 1000000), gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func (s *RepositoryTestSuite) TestAnalyzeTopPatterns() {
	s.insert(
		QueryLog{QueryText: "SELECT * FROM users WHERE id = 1", ExecutionTime: 0.1},
		QueryLog{QueryText: "SELECT * FROM users WHERE id = 2", ExecutionTime: 0.2},
		QueryLog{QueryText: "SELECT * FROM orders", ExecutionTime: 2},
	)
	data, err := s.repo.Analyze(context.Background(), ReportFilter{TopPatterns: 1}, nil)
	s.Require().NoError(err)
	s.Equal([]PatternStat{{Pattern: "select * from users where id = ?", Occurrences: 2}}, data.TopPatterns)

	csvBytes, err := ExportCSV(data)
	s.Require().NoError(err)
	s.Contains(string(csvBytes), "pattern,occurrences")
	s.Contains(string(csvBytes), "select * from users where id = ?,2")

	pdfBytes, err := ExportPDF(data)
	s.Require().NoError(err)
	s.True(len(pdfBytes) > 4 && string(pdfBytes[:4]) == "%PDF")
}
