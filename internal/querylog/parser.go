package querylog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Expected line format (single line):
// exec_time=<seconds>;records=<int>;indexes=<text>;columns=<a,b,...>;sql=<query>
//
// The SQL query may contain semicolons, so it is always the last field and
// everything after "sql=" belongs to it. records, indexes and columns may be
// empty. Blank lines and lines starting with '#' are ignored by ParseStream.
var lineRE = regexp.MustCompile(`^exec_time=([^;]+);records=(\d*);indexes=([^;]*);columns=([^;]*);sql=(.+)$`)

// ParseLine parses one line into a QueryLog (without ID/CreatedAt).
func ParseLine(s string) (QueryLog, error) {
	line := strings.TrimSpace(s)
	if line == "" {
		return QueryLog{}, fmt.Errorf("empty line")
	}
	m := lineRE.FindStringSubmatch(line)
	if len(m) != 6 {
		return QueryLog{}, fmt.Errorf("invalid line format")
	}

	execTime, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
	if err != nil {
		return QueryLog{}, fmt.Errorf("invalid exec_time: %w", err)
	}
	var records int64
	if m[2] != "" {
		records, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return QueryLog{}, fmt.Errorf("invalid records: %w", err)
		}
	}

	q := QueryLog{
		QueryText:        strings.TrimSpace(m[5]),
		ExecutionTime:    execTime,
		RecordsProcessed: records,
		IndexesUsed:      strings.TrimSpace(m[3]),
		ColumnsAccessed:  strings.TrimSpace(m[4]),
	}
	if err := q.Validate(); err != nil {
		return QueryLog{}, err
	}
	return q, nil
}

// ParseStream scans an io.Reader line by line and invokes onEntry for valid lines,
// and onError for bad lines; it does not stop on bad lines.
func ParseStream(ctx context.Context, r io.Reader, onEntry func(QueryLog) error, onError func(error)) error {
	sc := bufio.NewScanner(r)
	// Allow long SQL lines (up to 1 MiB)
	const maxLine = 1 << 20
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	lineNo := 0
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		lineNo++
		l := sc.Text()
		if t := strings.TrimSpace(l); t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		rec, err := ParseLine(l)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("line %d: parse: %w", lineNo, err))
			}
			continue
		}
		if onEntry != nil {
			if err := onEntry(rec); err != nil && onError != nil {
				onError(fmt.Errorf("line %d: store: %w", lineNo, err))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}
