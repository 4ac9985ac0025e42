// Package ai implements the external LLM capabilities: the company analyst
// and the competitive-news searcher.
package ai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meridiancap/riskradar/internal/config"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/prometheus"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// Capability labels for the ai_call_duration metric.
const (
	capabilityAnalysis   = "analysis"
	capabilityNewsSearch = "news_search"
)

// Client wraps the chat-completion transport shared by both capabilities.
type Client struct {
	api     *openai.Client
	model   string
	maxTok  int
	timeout time.Duration
	metrics *prometheus.Metrics
	log     logging.Logger
}

// NewClient constructs the shared LLM client.
func NewClient(cfg config.AIConfig, metrics *prometheus.Metrics, log logging.Logger) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		maxTok:  cfg.MaxTokens,
		timeout: cfg.CallTimeout,
		metrics: metrics,
		log:     log.Named("ai"),
	}
}

// Model returns the configured model identifier, recorded on completed
// assessments.
func (c *Client) Model() string {
	return c.model
}

// complete runs one system+user chat completion and returns the raw text.
func (c *Client) complete(ctx context.Context, capability, systemPrompt, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   c.maxTok,
		Temperature: 0.2,
	})
	c.metrics.ObserveAICall(capability, time.Since(start))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeAICallFailed, "llm call failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.CodeAIResponseInvalid, "llm returned no choices")
	}

	c.log.Debug("llm completion",
		logging.String("capability", capability),
		logging.Int("prompt_tokens", resp.Usage.PromptTokens),
		logging.Int("completion_tokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}
