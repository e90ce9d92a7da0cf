package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

// ChatConfig configures the completion client.
type ChatConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // Ollama server URL
	Timeout     time.Duration
	Retries     int
}

// Chat issues single-shot completions against an Ollama-served model.
// Safe for concurrent use; the underlying client is long-lived and shared.
type Chat struct {
	config ChatConfig
	llm    llms.Model
}

// NewChat validates the configuration and connects the client. Invalid
// configuration is fatal here, not at call time.
func NewChat(config ChatConfig) (*Chat, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	if config.Retries == 0 {
		config.Retries = 2
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Chat{
		config: config,
		llm:    model,
	}, nil
}

// Complete sends one prompt and returns the model's text. The call is
// bounded by the configured timeout and retried once on transient failure.
func (c *Chat) Complete(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	var answer string
	err := withRetry(ctx, c.config.Retries, time.Second, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()

		resp, err := c.llm.GenerateContent(callCtx, content,
			llms.WithTemperature(c.config.Temperature),
			llms.WithMaxTokens(c.config.MaxTokens),
		)
		if err != nil {
			return err
		}
		if resp == nil || len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion response")
		}
		answer = resp.Choices[0].Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("completion error: %w", err)
	}

	return answer, nil
}
