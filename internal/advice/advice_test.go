package advice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAdvise(t *testing.T) {
	cases := []struct {
		name string
		sql  string
		want string
	}{
		{"single field", "SELECT * FROM users WHERE email = 'a@b.c'", "Add index on email"},
		{"qualified fields", "SELECT id FROM orders o WHERE o.user_id = 5 AND o.status IN ('new') ORDER BY created_at", "Add indexes on user_id, status"},
		{"range and like", "select * from t where created_at >= now() and name like 'x%' limit 10", "Add indexes on created_at, name"},
		{"duplicate field", "SELECT * FROM t WHERE a > 1 OR a < 0", "Add index on a"},
		{"no where", "SELECT 1", ManualReview},
		{"no fields", "SELECT * FROM t WHERE 1", ManualReview},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Local{}.Advise(context.Background(), tc.sql)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewPicksAdvisor(t *testing.T) {
	assert.Equal(t, "local", New("").Name())
	assert.Equal(t, "openai", New("sk-test").Name())
}

func fakeOpenAI(t *testing.T, status int, body any) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAI(cfg)
}

func TestOpenAIAdvise(t *testing.T) {
	o := fakeOpenAI(t, http.StatusOK, map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4.1-nano",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": "  Add index on email\n"},
		}},
	})
	got, err := o.Advise(context.Background(), "SELECT * FROM users WHERE email = 'x'")
	require.NoError(t, err)
	assert.Equal(t, "Add index on email", got)
}

func TestOpenAIEmptyChoices(t *testing.T) {
	o := fakeOpenAI(t, http.StatusOK, map[string]any{"id": "chatcmpl-2", "choices": []any{}})
	_, err := o.Advise(context.Background(), "SELECT 1")
	require.Error(t, err)
}

func TestOpenAIServerError(t *testing.T) {
	o := fakeOpenAI(t, http.StatusInternalServerError, map[string]any{
		"error": map[string]any{"message": "upstream exploded", "type": "server_error"},
	})
	_, err := o.Advise(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
}
