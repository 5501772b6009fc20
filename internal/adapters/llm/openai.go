// Package llm holds the language model backends used by benchmarking tasks.
package llm

import (
	"context"
	"strings"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/sashabaranov/go-openai"
	"go.trai.ch/zerr"
)

// StrategyOpenAI is the resource strategy name of the OpenAI-compatible backend.
const StrategyOpenAI = "openai"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Config is the parameter block of the openai strategy.
type Config struct {
	APIKey string `yaml:"api_key"`
	URL    string `yaml:"url"`
	Model  string `yaml:"model"`
}

// OpenAI implements ports.LLM with a chat completion endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a client for cfg. An empty URL targets the public API.
func NewOpenAI(cfg Config, doer ports.HTTPClient) *OpenAI {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.URL != "" {
		conf.BaseURL = strings.TrimSuffix(cfg.URL, "/")
	}
	if doer != nil {
		conf.HTTPClient = doer
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(conf), model: model}
}

// Factory implements ports.LLMFactory.
func Factory(_ context.Context, params domain.Params, env ports.ResourceEnv) (ports.LLM, error) {
	var cfg Config
	if err := params.Decode(&cfg); err != nil {
		return nil, zerr.With(err, "resource", string(domain.ResourceLLM))
	}
	return NewOpenAI(cfg, env.HTTP), nil
}

// Generate sends prompt as a single user message and returns the first choice.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrLLMFailed.Error()), "model", o.model)
	}
	if len(resp.Choices) == 0 {
		return "", zerr.With(zerr.Wrap(domain.ErrLLMFailed, "no choices returned"), "model", o.model)
	}
	return resp.Choices[0].Message.Content, nil
}
