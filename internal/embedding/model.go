package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
)

// probeText is embedded once to learn the model's output dimension.
const probeText = "dimension probe"

// ModelEmbedder adapts a langchaingo embedder to Embedder.
type ModelEmbedder struct {
	embedder embeddings.Embedder
	dim      int
}

// NewModelEmbedder calls the model once to discover its dimension. Any error
// means the model is unusable.
func NewModelEmbedder(ctx context.Context, e embeddings.Embedder) (*ModelEmbedder, error) {
	v, err := e.EmbedQuery(ctx, probeText)
	if err != nil {
		return nil, fmt.Errorf("probe embedding model: %w", err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("probe embedding model: empty vector")
	}
	return &ModelEmbedder{embedder: e, dim: len(v)}, nil
}

func (m *ModelEmbedder) Dimension() int { return m.dim }

func (m *ModelEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := m.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return v, nil
}

func (m *ModelEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vs, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vs) != len(texts) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d texts", len(vs), len(texts))
	}
	return vs, nil
}
