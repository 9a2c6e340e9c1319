package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"endee-rag/internal/config"
	"endee-rag/internal/models"
)

// Embedder turns text into fixed-length vectors. Every vector it returns has
// exactly Dimension() components.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// New picks the embedding backend once. A model backend that cannot be
// reached falls back to the hash embedder so ingestion still works offline.
func New(ctx context.Context, cfg config.EmbedConfig) (Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        cfg.Provider,
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
	}).Msg("Loaded embedding config")

	var (
		impl *embeddings.EmbedderImpl
		err  error
	)
	switch cfg.Provider {
	case "", config.ProviderHash:
		return NewHashEmbedder(cfg.Model), nil
	case config.ProviderOllama:
		impl, err = newOllamaEmbedder(cfg)
	case config.ProviderOpenAI:
		impl, err = newOpenAIEmbedder(cfg)
	default:
		return nil, models.ConfigError("unknown EMBEDDING_PROVIDER %q", cfg.Provider)
	}
	if err == nil {
		var m *ModelEmbedder
		if m, err = NewModelEmbedder(ctx, impl); err == nil {
			log.Info().Str("provider", cfg.Provider).Int("dimension", m.Dimension()).Msg("Using model embeddings")
			return m, nil
		}
	}

	fallback := NewHashEmbedder(cfg.Model)
	log.Warn().Err(err).Str("provider", cfg.Provider).Int("dimension", fallback.Dimension()).
		Msg("Embedding model unavailable, falling back to hash embeddings")
	return fallback, nil
}

func newOllamaEmbedder(cfg config.EmbedConfig) (*embeddings.EmbedderImpl, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

func newOpenAIEmbedder(cfg config.EmbedConfig) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}
