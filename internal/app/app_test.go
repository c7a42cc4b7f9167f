package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engnews/internal/config"
)

func baseConfig(provider string) *config.Config {
	return &config.Config{
		TransformProvider: provider,
		TargetLang:        "uk",
		GeminiAPIKey:      "test-key",
		GeminiModel:       "gemini-1.5-flash",
		RequestTimeout:    5 * time.Second,
		MaxProviderCalls:  20,
	}
}

func TestBuildTransformerGeminiChain(t *testing.T) {
	tr, closeProviders, err := buildTransformer(context.Background(), baseConfig(config.ProviderGemini))
	require.NoError(t, err)
	defer closeProviders()

	// MyMemory needs no credentials, so it always backs up the primary.
	assert.Equal(t, []string{"gemini", "mymemory"}, tr.ProviderNames())
}

func TestBuildTransformerGeminiWithOpenAIFallback(t *testing.T) {
	cfg := baseConfig(config.ProviderGemini)
	cfg.OpenAIAPIKey = "sk-test"

	tr, closeProviders, err := buildTransformer(context.Background(), cfg)
	require.NoError(t, err)
	defer closeProviders()

	assert.Equal(t, []string{"gemini", "mymemory", "openai"}, tr.ProviderNames())
}

func TestBuildTransformerMyMemoryPrimary(t *testing.T) {
	cfg := baseConfig(config.ProviderMyMemory)
	cfg.OpenAIAPIKey = "sk-test"

	tr, closeProviders, err := buildTransformer(context.Background(), cfg)
	require.NoError(t, err)
	defer closeProviders()

	assert.Equal(t, []string{"mymemory", "openai"}, tr.ProviderNames())
}
