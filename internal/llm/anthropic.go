package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tinoosan/wealth/internal/errs"
)

const (
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultMaxTokens      = 1024
	defaultTimeout        = 30 * time.Second
)

type anthropicClient struct {
	client anthropic.Client
	model  string
	cfg    Config
}

func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicClient{client: anthropic.NewClient(opts...), model: cfg.Model, cfg: cfg}, nil
}

// Complete sends a single-turn message. Every failure wraps errs.ErrProviderUnavailable.
func (c *anthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	temp := req.Temperature
	if temp <= 0 {
		temp = c.cfg.Temperature
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(temp)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return "", fmt.Errorf("%w: authentication failed (status %d)", errs.ErrProviderUnavailable, apiErr.StatusCode)
			case http.StatusTooManyRequests:
				return "", fmt.Errorf("%w: rate limited", errs.ErrProviderUnavailable)
			default:
				return "", fmt.Errorf("%w: status %d", errs.ErrProviderUnavailable, apiErr.StatusCode)
			}
		}
		return "", fmt.Errorf("%w: %v", errs.ErrProviderUnavailable, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty response", errs.ErrProviderUnavailable)
	}
	return text, nil
}
