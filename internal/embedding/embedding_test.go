package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"endee-rag/internal/config"
	"endee-rag/internal/models"
)

func TestFallbackDimension(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{model: "sentence-transformers/all-MiniLM-L6-v2", want: 24},
		{model: "all-MiniLM-L6-v2", want: 24},
		{model: "org/plain", want: 384},
		{model: "", want: 384},
		{model: "a-b/c", want: 384},
		{model: "x/a-b-c-d-e-f-g-h", want: 56},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackDimension(tt.model))
			assert.Equal(t, tt.want, NewHashEmbedder(tt.model).Dimension())
		})
	}
}

func TestHashEmbedder_DeterministicAndBounded(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder("plain")

	a, err := e.Embed(ctx, "hello endee")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "hello endee")
	require.NoError(t, err)
	c, err := e.Embed(ctx, "hello endee!")
	require.NoError(t, err)

	require.Len(t, a, 384)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	for _, v := range a {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.Less(t, v, float32(1))
	}
}

func TestHashEmbedder_KnownPrefix(t *testing.T) {
	// sha256("") = e3b0c44298fc1c14...
	v := hashVector("", 1)
	require.Len(t, v, 1)
	want := float64(0xe3b0c44298fc1c14%1_000_000)/1_000_000.0*2.0 - 1.0
	assert.InDelta(t, want, float64(v[0]), 1e-6)
}

func TestHashEmbedder_RehashExtendsDigest(t *testing.T) {
	short := hashVector("text", 4)
	long := hashVector("text", 10)
	require.Len(t, long, 10)
	assert.Equal(t, short, long[:4])
	assert.NotEqual(t, long[:4], long[4:8])
}

func TestHashEmbedder_Batch(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder("all-MiniLM-L6-v2")
	texts := []string{"one", "two", "three"}

	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))
	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
		assert.Len(t, batch[i], 24)
	}
}

type fakeModel struct {
	dim     int
	err     error
	queries int
}

func (f *fakeModel) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	v := make([]float32, f.dim)
	if f.dim > 0 {
		v[0] = float32(len(text))
	}
	return v, nil
}

func (f *fakeModel) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := f.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func TestModelEmbedder_ProbesDimension(t *testing.T) {
	ctx := context.Background()
	fm := &fakeModel{dim: 768}

	m, err := NewModelEmbedder(ctx, fm)
	require.NoError(t, err)
	assert.Equal(t, 768, m.Dimension())
	assert.Equal(t, 1, fm.queries)

	v, err := m.Embed(ctx, "abc")
	require.NoError(t, err)
	assert.Len(t, v, 768)
	assert.Equal(t, float32(3), v[0])

	vs, err := m.EmbedBatch(ctx, []string{"a", "bb"})
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, float32(2), vs[1][0])
}

func TestModelEmbedder_ProbeFailure(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewModelEmbedder(context.Background(), &fakeModel{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = NewModelEmbedder(context.Background(), &fakeModel{dim: 0})
	assert.Error(t, err)
}

func TestNew_SelectsHash(t *testing.T) {
	e, err := New(context.Background(), config.EmbedConfig{Provider: config.ProviderHash, Model: "sentence-transformers/all-MiniLM-L6-v2"})
	require.NoError(t, err)
	assert.IsType(t, &HashEmbedder{}, e)
	assert.Equal(t, 24, e.Dimension())
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.EmbedConfig{Provider: "word2vec"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestNew_UnreachableModelFallsBack(t *testing.T) {
	e, err := New(context.Background(), config.EmbedConfig{
		Provider: config.ProviderOllama,
		Model:    "nomic-embed-text",
		BaseURL:  "http://127.0.0.1:1",
	})
	require.NoError(t, err)
	assert.IsType(t, &HashEmbedder{}, e)
	assert.Equal(t, 16, e.Dimension())
}
