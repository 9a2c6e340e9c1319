package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	"endee-rag/internal/models"
)

const defaultDSN = "file:vector_metadata.db"

// ChunkRow is the SQL form of one metadata entry.
type ChunkRow struct {
	bun.BaseModel `bun:"table:chunk_metadata,alias:cm"`
	ID            string `bun:"id,pk"`
	Text          string `bun:"text,notnull"`
	Source        string `bun:"source,notnull"`
	ChunkIndex    int    `bun:"chunk_index,notnull"`
	TotalChunks   int    `bun:"total_chunks,notnull"`
}

func rowFromChunk(c models.Chunk) ChunkRow {
	return ChunkRow{
		ID:          c.ID,
		Text:        c.Text,
		Source:      c.Source,
		ChunkIndex:  c.ChunkIndex,
		TotalChunks: c.TotalChunks,
	}
}

func (r ChunkRow) metadata() models.ChunkMetadata {
	return models.ChunkMetadata{
		Text:        r.Text,
		Source:      r.Source,
		ChunkIndex:  r.ChunkIndex,
		TotalChunks: r.TotalChunks,
	}
}

// NewDB wraps sqldb with the dialect matching dsn. Query logging is verbose
// when debug is set.
func NewDB(sqldb *sql.DB, dsn string, debug bool) *bun.DB {
	var db *bun.DB
	if isPostgres(dsn) {
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens Postgres for postgres:// DSNs and SQLite for anything else.
func ConnectDB(dsn string) (*sql.DB, error) {
	if isPostgres(dsn) {
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), nil
	}
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	sqldb.SetMaxOpenConns(1)
	return sqldb, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*ChunkRow)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Store is a metadata store backed by a SQL table. Staged entries are
// written in one transaction on Flush.
type Store struct {
	db *bun.DB

	mu      sync.Mutex
	pending []ChunkRow
}

// Open connects to dsn, creating the table when needed. An empty dsn uses a
// local SQLite file.
func Open(ctx context.Context, dsn string, debug bool) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	sqldb, err := ConnectDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect metadata db: %w", err)
	}
	db := NewDB(sqldb, dsn, debug)
	if err := InitDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init metadata db: %w", err)
	}
	log.Debug().Bool("postgres", isPostgres(dsn)).Msg("Opened metadata db")
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.ChunkMetadata, bool, error) {
	var row ChunkRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChunkMetadata{}, false, nil
	}
	if err != nil {
		return models.ChunkMetadata{}, false, fmt.Errorf("get metadata %s: %w", id, err)
	}
	return row.metadata(), true, nil
}

func (s *Store) Put(chunks ...models.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.pending = append(s.pending, rowFromChunk(c))
	}
}

// Flush upserts every staged row. On failure the rows stay staged.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&s.pending).
			On("CONFLICT (id) DO UPDATE").
			Set("text = EXCLUDED.text").
			Set("source = EXCLUDED.source").
			Set("chunk_index = EXCLUDED.chunk_index").
			Set("total_chunks = EXCLUDED.total_chunks").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("flush metadata: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().Model((*ChunkRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete metadata %s: %w", id, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
