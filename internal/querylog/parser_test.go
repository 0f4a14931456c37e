package querylog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	q, err := ParseLine("exec_time=2.5;records=1000;indexes=none;columns=id, name;sql=SELECT id, name FROM users WHERE name = 'a;b'")
	require.NoError(t, err)
	assert.Equal(t, 2.5, q.ExecutionTime)
	assert.EqualValues(t, 1000, q.RecordsProcessed)
	assert.Equal(t, "none", q.IndexesUsed)
	assert.Equal(t, "id, name", q.ColumnsAccessed)
	assert.Equal(t, "SELECT id, name FROM users WHERE name = 'a;b'", q.QueryText)
}

func TestParseLineOptionalFieldsEmpty(t *testing.T) {
	q, err := ParseLine("exec_time=0.01;records=;indexes=;columns=;sql=SELECT 1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, q.RecordsProcessed)
	assert.Empty(t, q.IndexesUsed)
	assert.Empty(t, q.ColumnsAccessed)
}

func TestParseLineRejects(t *testing.T) {
	cases := map[string]string{
		"empty":         "   ",
		"format":        "SELECT 1",
		"bad float":     "exec_time=fast;records=1;indexes=;columns=;sql=SELECT 1",
		"zero time":     "exec_time=0;records=1;indexes=;columns=;sql=SELECT 1",
		"negative time": "exec_time=-1;records=1;indexes=;columns=;sql=SELECT 1",
		"blank sql":     "exec_time=1;records=1;indexes=;columns=;sql=   ",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLine(line)
			assert.Error(t, err)
		})
	}
}

func TestParseStreamSkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"exec_time=1.2;records=10;indexes=idx_a;columns=a;sql=SELECT a FROM t",
		"garbage",
		"",
		"exec_time=0.2;records=1;indexes=;columns=b,c;sql=SELECT b, c FROM t",
	}, "\n")

	var got []QueryLog
	var errs []error
	err := ParseStream(context.Background(), strings.NewReader(input),
		func(q QueryLog) error { got = append(got, q); return nil },
		func(e error) { errs = append(errs, e) },
	)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "line 3")
	assert.Equal(t, "b,c", got[1].ColumnsAccessed)
}

func TestParseStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ParseStream(ctx, strings.NewReader("exec_time=1;records=1;indexes=;columns=;sql=SELECT 1"), nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, QueryLog{ExecutionTime: 1}.Validate(), ErrInvalid)
	assert.ErrorIs(t, QueryLog{QueryText: "SELECT 1"}.Validate(), ErrInvalid)
	assert.ErrorIs(t, QueryLog{QueryText: "SELECT 1", ExecutionTime: 1, RecordsProcessed: -1}.Validate(), ErrInvalid)
	assert.NoError(t, QueryLog{QueryText: "SELECT 1", ExecutionTime: 0.001}.Validate())
}

func TestSplitColumns(t *testing.T) {
	assert.Nil(t, SplitColumns(""))
	assert.Equal(t, []string{"a", "b"}, SplitColumns(" a, ,b,"))
	assert.Equal(t, []string{"A", "a"}, SplitColumns("A,a"))
}
