// Package app assembles the concrete collaborators from configuration
// and runs the pipeline. Both entry points (CLI and Lambda) call Run.
package app

import (
	"context"
	"fmt"

	"engnews/internal/config"
	"engnews/internal/extract"
	"engnews/internal/logger"
	"engnews/internal/pipeline"
	"engnews/internal/ratelimit"
	"engnews/internal/source"
	"engnews/internal/store"
	"engnews/internal/telegram"
	"engnews/internal/transform"
)

// Run wires the full pipeline from cfg and executes one publishing run.
func Run(ctx context.Context, cfg *config.Config) (pipeline.RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return pipeline.RunResult{}, fmt.Errorf("invalid configuration: %w", err)
	}

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return pipeline.RunResult{}, fmt.Errorf("load sources: %w", err)
	}

	st, err := buildStore(cfg)
	if err != nil {
		return pipeline.RunResult{}, err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()

	transformer, closeProviders, err := buildTransformer(ctx, cfg)
	if err != nil {
		return pipeline.RunResult{}, err
	}
	defer closeProviders()

	p := pipeline.New(
		source.NewReader(sources, cfg.RequestTimeout, cfg.MaxCandidates),
		st,
		extract.NewExtractor(cfg.RequestTimeout, cfg.MinTextLen, cfg.MaxTextLen),
		transformer,
		telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID),
		pipeline.Options{
			PublishTarget: cfg.PublishTarget,
			PublishDelay:  cfg.PublishDelay,
			TimeBudget:    cfg.TimeBudget,
			MinTextLen:    cfg.MinTextLen,
		},
	)

	return p.Run(ctx)
}

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		return store.NewPostgresStore(cfg.PostgresDSN)
	case config.StoreFile:
		return store.NewFileStore(cfg.FileStorePath)
	default:
		return store.NewAppwriteStore(cfg.Appwrite, cfg.RequestTimeout), nil
	}
}

// buildTransformer assembles the provider chain: the configured primary,
// then MyMemory (keyless, always available as a fallback), then OpenAI
// when a key is present. The returned closer releases provider clients
// after the run.
func buildTransformer(ctx context.Context, cfg *config.Config) (*transform.Transformer, func(), error) {
	var providers []transform.Provider
	closeProviders := func() {}

	if cfg.TransformProvider == config.ProviderGemini {
		gem, err := transform.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini provider: %w", err)
		}
		providers = append(providers, gem)
		closeProviders = func() {
			if err := gem.Close(); err != nil {
				logger.Warn("gemini client close failed", "error", err)
			}
		}
	}

	providers = append(providers, transform.NewMyMemoryProvider(cfg.RequestTimeout))

	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, transform.NewOpenAIProvider(cfg.OpenAIAPIKey))
	}

	budget := ratelimit.NewBudget(cfg.MaxProviderCalls)
	transformer := transform.New(providers, budget, cfg.TargetLang)
	logger.Info("transform chain assembled", "providers", transformer.ProviderNames())
	return transformer, closeProviders, nil
}
