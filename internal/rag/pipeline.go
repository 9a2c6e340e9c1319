package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"endee-rag/internal/embedding"
	"endee-rag/internal/metadata"
	"endee-rag/internal/models"
	"endee-rag/internal/parser"
)

// Pipeline ingests documents: chunk, embed, upsert, then persist metadata.
type Pipeline struct {
	processor *parser.Processor
	embedder  embedding.Embedder
	store     VectorStore
	meta      metadata.Store
	index     string
}

func NewPipeline(processor *parser.Processor, embedder embedding.Embedder, store VectorStore, meta metadata.Store, index string) *Pipeline {
	return &Pipeline{
		processor: processor,
		embedder:  embedder,
		store:     store,
		meta:      meta,
		index:     index,
	}
}

// EnsureIndex creates the index sized to the embedder unless it already
// exists. A failed listing is not fatal; creation is attempted anyway.
func (p *Pipeline) EnsureIndex(ctx context.Context) error {
	infos, err := p.store.ListIndices(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not check existing indices")
	} else {
		for _, info := range infos {
			if info.Name == p.index {
				log.Info().Str("index", p.index).Msg("Index already exists")
				return nil
			}
		}
	}

	dim := p.embedder.Dimension()
	log.Info().Str("index", p.index).Int("dimension", dim).Msg("Creating index")
	err = p.store.CreateIndex(ctx, p.index, dim, models.DefaultSpaceType)
	if errors.Is(err, models.ErrIndexExists) {
		log.Info().Str("index", p.index).Msg("Index already exists (conflict), continuing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("create index %s: %w", p.index, err)
	}
	return nil
}

// IngestFile stores every chunk of filePath. Metadata is written only after
// the vectors were accepted, so a failed upsert leaves no orphan entries.
func (p *Pipeline) IngestFile(ctx context.Context, filePath string) (*models.IngestResult, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: file %s", models.ErrNotFound, filePath)
		}
		return nil, err
	}

	log.Info().Str("file", filePath).Msg("Processing document")
	chunks, err := p.processor.ProcessDocument(filePath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("chunks", len(chunks)).Msg("Generated chunks")

	result := &models.IngestResult{File: filePath, Chunks: len(chunks), Status: models.StatusSuccess}
	if len(chunks) == 0 {
		return result, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", filePath, err)
	}
	log.Debug().Int("vectors", len(vectors)).Msg("Generated embeddings")

	records := make([]models.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = models.VectorRecord{ID: c.ID, Vector: vectors[i], Metadata: c.Metadata()}
	}

	inserted, err := p.store.Upsert(ctx, p.index, records)
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", filePath, err)
	}
	log.Info().Int("inserted", inserted).Str("index", p.index).Msg("Upserted vectors")

	p.meta.Put(chunks...)
	if err := p.meta.Flush(ctx); err != nil {
		return nil, fmt.Errorf("persist metadata for %s: %w", filePath, err)
	}

	result.VectorsStored = len(records)
	return result, nil
}

// IngestDirectory ingests the files in dir whose names end with ext, in name
// order. A failing file is reported in its result and does not stop the rest.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir, ext string) ([]models.IngestResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s", models.ErrNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", models.ErrNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var results []models.IngestResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		res, err := p.IngestFile(ctx, path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Error ingesting file")
			results = append(results, models.IngestResult{File: path, Status: models.StatusError, Error: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// DeleteChunk removes a vector and its metadata entry.
func (p *Pipeline) DeleteChunk(ctx context.Context, id string) error {
	if err := p.store.Delete(ctx, p.index, id); err != nil {
		return fmt.Errorf("delete vector %s: %w", id, err)
	}
	if err := p.meta.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete metadata %s: %w", id, err)
	}
	return nil
}
