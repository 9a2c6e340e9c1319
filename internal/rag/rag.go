package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"endee-rag/internal/models"
)

// VectorStore is the index contract shared by the Endee client and the
// embedded chromem store.
type VectorStore interface {
	CreateIndex(ctx context.Context, name string, dim int, space string) error
	Upsert(ctx context.Context, index string, records []models.VectorRecord) (int, error)
	Search(ctx context.Context, index string, vector []float32, k int) ([]models.SearchHit, error)
	Delete(ctx context.Context, index, id string) error
	ListIndices(ctx context.Context) ([]models.IndexInfo, error)
	IndexInfo(ctx context.Context, name string) (models.IndexInfo, error)
}

// Answerer produces an answer from a question and formatted context.
type Answerer interface {
	Generate(ctx context.Context, query, contextText string) (*models.PromptResponse, error)
}

// QueryResult holds the retrieved documents and, when any were found, the answer.
type QueryResult struct {
	Documents []models.RetrievedDocument `json:"documents"`
	Answer    *models.PromptResponse     `json:"answer,omitempty"`
}

type RAG struct {
	retriever *Retriever
	answerer  Answerer
}

func NewRAG(retriever *Retriever, answerer Answerer) *RAG {
	return &RAG{retriever: retriever, answerer: answerer}
}

// Query retrieves context for query and asks the answerer. Nothing is
// generated when retrieval comes back empty.
func (r *RAG) Query(ctx context.Context, query string, topK int) (*QueryResult, error) {
	docs, err := r.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	res := &QueryResult{Documents: docs}
	if len(docs) == 0 {
		log.Info().Str("query", query).Msg("No documents retrieved, skipping generation")
		return res, nil
	}

	if res.Answer, err = r.Answer(ctx, query, docs); err != nil {
		return nil, err
	}
	return res, nil
}

// Answer generates from already retrieved documents.
func (r *RAG) Answer(ctx context.Context, query string, docs []models.RetrievedDocument) (*models.PromptResponse, error) {
	answer, err := r.answerer.Generate(ctx, query, FormatContext(docs))
	if err != nil {
		return nil, fmt.Errorf("answer %q: %w", query, err)
	}
	return answer, nil
}
