// Package schema derives index suggestions from the columns recorded in
// query logs.
package schema

import (
	"context"
	"fmt"

	"github.com/google/btree"

	"query-advisor/internal/querylog"
)

const btreeDegree = 16

// Source supplies the raw columns_accessed values in id order;
// *querylog.Repository satisfies it.
type Source interface {
	ColumnsAccessed(ctx context.Context) ([]string, error)
}

// ColumnStat is one column and how many logs referenced it.
type ColumnStat struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

func (c ColumnStat) Less(than btree.Item) bool {
	return c.Column < than.(ColumnStat).Column
}

// Analyzer recomputes everything from the source on each call.
type Analyzer struct {
	source Source
}

func NewAnalyzer(source Source) *Analyzer {
	return &Analyzer{source: source}
}

// Suggestion is the advisory text emitted for one column.
func Suggestion(column string) string {
	return fmt.Sprintf("Consider adding an index on column '%s'", column)
}

// Suggest returns one suggestion per distinct column, in the order the
// columns were first seen.
func (a *Analyzer) Suggest(ctx context.Context) ([]string, error) {
	raw, err := a.source.ColumnsAccessed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load columns: %w", err)
	}
	order, counts := tally(raw)
	out := make([]string, 0, len(order))
	for _, c := range order {
		if counts[c] >= 1 {
			out = append(out, Suggestion(c))
		}
	}
	return out, nil
}

// Columns returns per-column usage counts sorted by column name.
func (a *Analyzer) Columns(ctx context.Context) ([]ColumnStat, error) {
	raw, err := a.source.ColumnsAccessed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load columns: %w", err)
	}
	_, counts := tally(raw)

	tree := btree.New(btreeDegree)
	for c, n := range counts {
		tree.ReplaceOrInsert(ColumnStat{Column: c, Count: n})
	}
	out := make([]ColumnStat, 0, tree.Len())
	tree.Ascend(func(i btree.Item) bool {
		out = append(out, i.(ColumnStat))
		return true
	})
	return out, nil
}

// tally counts case-sensitive column names and remembers first-seen order.
func tally(raw []string) ([]string, map[string]int) {
	var order []string
	counts := make(map[string]int)
	for _, s := range raw {
		for _, c := range querylog.SplitColumns(s) {
			if _, seen := counts[c]; !seen {
				order = append(order, c)
			}
			counts[c]++
		}
	}
	return order, counts
}
