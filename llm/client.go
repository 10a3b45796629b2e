// Package llm backs the runtime's model interfaces with the Anthropic
// Messages API.
package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/tenantwise/steering"
)

// Default model parameters.
const (
	DefaultModel     = string(anthropic.ModelClaudeSonnet4_5)
	DefaultMaxTokens = 8192
)

// Config configures the Anthropic model client.
type Config struct {
	// Model is the model identifier. Default: DefaultModel
	Model string

	// MaxTokens caps each generation. Default: 8192
	MaxTokens int64
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// Client is an Anthropic-backed steering.ModelClient.
type Client struct {
	client *anthropic.Client
	cfg    Config
}

// NewClient creates a model client over an Anthropic API client.
func NewClient(client *anthropic.Client, cfg Config) (*Client, error) {
	if client == nil {
		return nil, fmt.Errorf("llm: anthropic client is required")
	}
	cfg.ApplyDefaults()
	return &Client{client: client, cfg: cfg}, nil
}

var _ steering.ModelClient = (*Client)(nil)

// Generate starts one streamed generation over the request history.
func (c *Client) Generate(ctx context.Context, req steering.GenerateRequest) (steering.ModelStream, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: c.cfg.MaxTokens,
		Messages:  convertEvents(req.Events),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	return newStream(c.client.Messages.NewStreaming(ctx, params)), nil
}
