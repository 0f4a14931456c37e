// Package advice produces free-text tuning advice for individual slow
// queries, from OpenAI when a key is configured and from a local WHERE-clause
// heuristic otherwise.
package advice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ManualReview is returned when no concrete advice can be derived.
const ManualReview = "Recommendation: manual review required"

// Advisor analyzes one SQL statement.
type Advisor interface {
	Advise(ctx context.Context, sql string) (string, error)
	Name() string
}

// New returns an OpenAI advisor when apiKey is set, otherwise the local one.
func New(apiKey string) Advisor {
	if apiKey == "" {
		return Local{}
	}
	return NewOpenAI(openai.DefaultConfig(apiKey))
}

// OpenAI asks a chat model for index suggestions.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(cfg openai.ClientConfig) *OpenAI {
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: openai.GPT4Dot1Nano}
}

func (o *OpenAI) Name() string { return "openai" }

const promptTemplate = `You are a database optimization assistant.
Analyze the SQL query below and suggest indexes based on these rules:
Identify the fields used in the WHERE clause.
If the WHERE clause contains a single field, suggest: "Add index on [field_name]".
If it has multiple fields, suggest indexes for all relevant fields.
Point out other obvious performance improvements in one or two sentences.
If the query cannot be analyzed, return: "%s".

Query to analyze:
%s`

func (o *OpenAI) Advise(ctx context.Context, sql string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, ManualReview, sql)},
		},
		MaxTokens:   1024,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var (
	whereRe = regexp.MustCompile(`(?is)\bWHERE\s+(.+?)(?:\s+ORDER\s+BY|\s+GROUP\s+BY|\s+HAVING|\s+LIMIT|;|$)`)
	fieldRe = regexp.MustCompile(`([A-Za-z_][\w.]*)\s*(?:=|<>|!=|<=|>=|<|>|\s+(?i:LIKE|IN|BETWEEN|IS)\b)`)
)

// Local extracts WHERE-clause fields with regular expressions.
type Local struct{}

func (Local) Name() string { return "local" }

func (Local) Advise(_ context.Context, sql string) (string, error) {
	m := whereRe.FindStringSubmatch(sql)
	if len(m) < 2 {
		return ManualReview, nil
	}
	var fields []string
	seen := map[string]bool{}
	for _, fm := range fieldRe.FindAllStringSubmatch(m[1], -1) {
		f := fm[1]
		if i := strings.LastIndex(f, "."); i >= 0 {
			f = f[i+1:]
		}
		switch strings.ToUpper(f) {
		case "AND", "OR", "NOT", "NULL":
			continue
		}
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	switch len(fields) {
	case 0:
		return ManualReview, nil
	case 1:
		return "Add index on " + fields[0], nil
	default:
		return "Add indexes on " + strings.Join(fields, ", "), nil
	}
}
