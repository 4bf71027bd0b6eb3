package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultBaseURL is Groq's OpenAI-compatible API root.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// groqCompleter sends one chat completion per prompt to an OpenAI-compatible endpoint.
type groqCompleter struct {
	client openai.Client
}

func newGroqCompleter(apiKey, baseURL string, opts ...option.RequestOption) *groqCompleter {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		// The breaker decides when to stop calling the provider.
		option.WithMaxRetries(0),
	}, opts...)

	return &groqCompleter{
		client: openai.NewClient(opts...),
	}
}

func (c *groqCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("response has no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("completion is empty (finishReason = %s)", resp.Choices[0].FinishReason)
	}

	return content, nil
}
