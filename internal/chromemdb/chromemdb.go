package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"endee-rag/internal/models"
)

const (
	compress  = false
	precision = "float32"
)

var errNoEmbeddingFunc = errors.New("chromemdb: embeddings must be supplied by the caller")

// Store keeps vector indexes in an embedded chromem-go database, either in
// memory or persisted under a directory. Each index is a collection.
type Store struct {
	db *chromem.DB

	mu   sync.Mutex
	dims map[string]int
}

// NewStore opens a persistent database at dbPath, or an in-memory one when
// dbPath is empty.
func NewStore(dbPath string) (*Store, error) {
	var db *chromem.DB
	if dbPath == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}
	log.Debug().Str("path", dbPath).Bool("in_memory", dbPath == "").Msg("Opened chromem store")
	return &Store{db: db, dims: map[string]int{}}, nil
}

// noEmbedding stops chromem from calling its default remote embedder.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

func (s *Store) collection(name string) (*chromem.Collection, error) {
	c := s.db.GetCollection(name, noEmbedding)
	if c == nil {
		return nil, fmt.Errorf("%w: index %q not found", models.ErrStore, name)
	}
	return c, nil
}

// checkDim learns the dimension of collections opened from disk on first use.
func (s *Store) checkDim(name string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dim, ok := s.dims[name]
	if !ok {
		s.dims[name] = n
		return nil
	}
	if n != dim {
		return fmt.Errorf("%w: %w: index %q expects %d, got %d", models.ErrStore, models.ErrDimensionMismatch, name, dim, n)
	}
	return nil
}

func (s *Store) CreateIndex(_ context.Context, name string, dim int, space string) error {
	if s.db.GetCollection(name, noEmbedding) != nil {
		return fmt.Errorf("create index %q: %w", name, models.ErrIndexExists)
	}
	if space != "" && space != models.DefaultSpaceType {
		return fmt.Errorf("%w: space type %q not supported", models.ErrStore, space)
	}
	if _, err := s.db.CreateCollection(name, map[string]string{"dimension": strconv.Itoa(dim)}, noEmbedding); err != nil {
		return fmt.Errorf("%w: create collection: %w", models.ErrStore, err)
	}
	s.mu.Lock()
	s.dims[name] = dim
	s.mu.Unlock()
	log.Debug().Str("index", name).Int("dimension", dim).Msg("Created chromem collection")
	return nil
}

func (s *Store) Upsert(ctx context.Context, index string, records []models.VectorRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	c, err := s.collection(index)
	if err != nil {
		return 0, err
	}

	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		if err := s.checkDim(index, len(r.Vector)); err != nil {
			return 0, err
		}
		docs = append(docs, chromem.Document{
			ID:        r.ID,
			Content:   r.Metadata.Text,
			Metadata:  toChromemMetadata(r.Metadata),
			Embedding: r.Vector,
		})
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("%w: failed to add documents: %w", models.ErrStore, err)
	}
	return len(docs), nil
}

func (s *Store) Search(ctx context.Context, index string, vector []float32, k int) ([]models.SearchHit, error) {
	c, err := s.collection(index)
	if err != nil {
		return nil, err
	}
	if err := s.checkDim(index, len(vector)); err != nil {
		return nil, err
	}

	// chromem rejects NResults above the collection size.
	n := min(k, c.Count())
	if n <= 0 {
		return []models.SearchHit{}, nil
	}

	results, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query by similarity: %w", models.ErrStore, err)
	}

	hits := make([]models.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, models.SearchHit{
			ID:       r.ID,
			Score:    float64(r.Similarity),
			Metadata: fromChromemMetadata(r.Content, r.Metadata),
		})
	}
	return hits, nil
}

func (s *Store) Delete(ctx context.Context, index, id string) error {
	c, err := s.collection(index)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("%w: delete %s: %w", models.ErrStore, id, err)
	}
	return nil
}

func (s *Store) ListIndices(_ context.Context) ([]models.IndexInfo, error) {
	cols := s.db.ListCollections()
	infos := make([]models.IndexInfo, 0, len(cols))
	for name, c := range cols {
		infos = append(infos, s.info(name, c))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *Store) IndexInfo(_ context.Context, name string) (models.IndexInfo, error) {
	c, err := s.collection(name)
	if err != nil {
		return models.IndexInfo{}, err
	}
	return s.info(name, c), nil
}

func (s *Store) info(name string, c *chromem.Collection) models.IndexInfo {
	s.mu.Lock()
	dim := s.dims[name]
	s.mu.Unlock()
	return models.IndexInfo{
		Name:          name,
		Dimension:     dim,
		TotalElements: c.Count(),
		SpaceType:     models.DefaultSpaceType,
		Precision:     precision,
	}
}

func toChromemMetadata(m models.ChunkMetadata) map[string]string {
	return map[string]string{
		"source":       m.Source,
		"chunk_index":  strconv.Itoa(m.ChunkIndex),
		"total_chunks": strconv.Itoa(m.TotalChunks),
	}
}

func fromChromemMetadata(content string, m map[string]string) map[string]any {
	out := map[string]any{"text": content}
	for k, v := range m {
		if n, err := strconv.Atoi(v); err == nil && (k == "chunk_index" || k == "total_chunks") {
			out[k] = n
			continue
		}
		out[k] = v
	}
	return out
}
