package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/tenantwise/steering/compaction"
)

// Default summarizer parameters. A smaller model is enough for prose
// summaries and keeps compaction cheap.
const (
	DefaultSummarizerModel     = string(anthropic.ModelClaude3_5HaikuLatest)
	DefaultSummarizerMaxTokens = 2048
)

// Summarizer is an Anthropic-backed compaction.Summarizer. It runs the
// summarization as a constrained sub-task with no tools.
type Summarizer struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewSummarizer creates a summarizer. Empty model and zero maxTokens
// fall back to the defaults.
func NewSummarizer(client *anthropic.Client, model string, maxTokens int64) (*Summarizer, error) {
	if client == nil {
		return nil, fmt.Errorf("llm: anthropic client is required")
	}
	if model == "" {
		model = DefaultSummarizerModel
	}
	if maxTokens == 0 {
		maxTokens = DefaultSummarizerMaxTokens
	}
	return &Summarizer{client: client, model: model, maxTokens: maxTokens}, nil
}

var _ compaction.Summarizer = (*Summarizer)(nil)

// Summarize generates a summary of the transcript using the streaming
// Messages API.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("llm: empty transcript")
	}

	stream := s.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: compaction.SummarizationSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(transcript)),
		},
	})

	message := anthropic.Message{}
	for stream.Next() {
		if err := message.Accumulate(stream.Current()); err != nil {
			return "", fmt.Errorf("%w: %v", compaction.ErrSummarizationFailed, err)
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", compaction.ErrSummarizationFailed, err)
	}

	var summary strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			summary.WriteString(text.Text)
		}
	}
	if summary.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", compaction.ErrSummarizationFailed)
	}
	return strings.TrimSpace(summary.String()), nil
}
