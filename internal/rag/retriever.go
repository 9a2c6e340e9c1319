package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"endee-rag/internal/embedding"
	"endee-rag/internal/metadata"
	"endee-rag/internal/models"
)

type Retriever struct {
	embedder embedding.Embedder
	store    VectorStore
	meta     metadata.Store
	index    string
	topK     int
}

func NewRetriever(embedder embedding.Embedder, store VectorStore, meta metadata.Store, index string, topK int) *Retriever {
	return &Retriever{embedder: embedder, store: store, meta: meta, index: index, topK: topK}
}

// Retrieve returns up to topK documents in the store's order, ranked from 1.
// A non-positive topK uses the configured default. Text and source come from
// the metadata store, then from the hit's own payload.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievedDocument, error) {
	if topK <= 0 {
		topK = r.topK
	}

	log.Debug().Str("query", query).Msg("Embedding query")
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	log.Debug().Int("top_k", topK).Str("index", r.index).Msg("Searching")
	hits, err := r.store.Search(ctx, r.index, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.index, err)
	}

	docs := make([]models.RetrievedDocument, 0, len(hits))
	for i, hit := range hits {
		doc := models.RetrievedDocument{Rank: i + 1, ID: hit.ID, Score: hit.Score}
		m, ok, err := r.meta.Get(ctx, hit.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			doc.Text, doc.Source = m.Text, m.Source
		} else {
			doc.Text = payloadString(hit.Metadata, "text", "")
			doc.Source = payloadString(hit.Metadata, "source", models.UnknownSource)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func payloadString(payload map[string]any, key, fallback string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return fallback
}

// FormatContext renders documents as source-tagged blocks for the prompt.
func FormatContext(docs []models.RetrievedDocument) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf(models.ContextHeader, d.Source, d.Score, d.Text))
	}
	return strings.Join(parts, models.ContextSeparator)
}
