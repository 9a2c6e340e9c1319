package rag

import (
	"context"
	"net/http"

	"endee-rag/internal/models"
)

// fakeStore records calls and returns canned answers.
type fakeStore struct {
	indices   []models.IndexInfo
	listErr   error
	createErr error
	upsertErr error
	hits      []models.SearchHit

	created  []string
	upserted []models.VectorRecord
	deleted  []string
	searches int
}

func (f *fakeStore) CreateIndex(_ context.Context, name string, _ int, _ string) error {
	f.created = append(f.created, name)
	return f.createErr
}

func (f *fakeStore) Upsert(_ context.Context, _ string, records []models.VectorRecord) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upserted = append(f.upserted, records...)
	return len(records), nil
}

func (f *fakeStore) Search(context.Context, string, []float32, int) ([]models.SearchHit, error) {
	f.searches++
	return f.hits, nil
}

func (f *fakeStore) Delete(_ context.Context, _, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) ListIndices(context.Context) ([]models.IndexInfo, error) {
	return f.indices, f.listErr
}

func (f *fakeStore) IndexInfo(_ context.Context, name string) (models.IndexInfo, error) {
	return models.IndexInfo{Name: name}, nil
}

var errConflict = models.NewStoreError("create index", http.StatusConflict, []byte("exists"))

type fakeAnswerer struct {
	calls   int
	context string
}

func (f *fakeAnswerer) Generate(_ context.Context, query, contextText string) (*models.PromptResponse, error) {
	f.calls++
	f.context = contextText
	return &models.PromptResponse{Query: query, Content: "answer", Model: "fake"}, nil
}
