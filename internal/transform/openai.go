package transform

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider is a fallback that mirrors the Gemini prompt contract, so
// the same labeled-output parser applies.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Transform(ctx context.Context, title, text, targetLang string) (Result, error) {
	prompt := buildPrompt(title, truncateAtSentence(text, geminiInputCap), targetLang)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: 600,
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("openai: empty response")
	}

	outTitle, outSummary, err := parseLabeled(resp.Choices[0].Message.Content)
	if err != nil {
		return Result{}, fmt.Errorf("openai: %w", err)
	}

	return Result{Title: outTitle, Summary: outSummary}, nil
}
