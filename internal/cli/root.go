package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"endee-rag/internal/chromemdb"
	"endee-rag/internal/config"
	"endee-rag/internal/db"
	"endee-rag/internal/embedding"
	"endee-rag/internal/endee"
	"endee-rag/internal/helper"
	"endee-rag/internal/llmservice"
	"endee-rag/internal/metadata"
	"endee-rag/internal/models"
	"endee-rag/internal/parser"
	"endee-rag/internal/rag"
)

const defaultConfigPath = "./configs/config.yaml"

var (
	cfgFile string
	cfg     *config.Config

	// newServices is swapped out by tests.
	newServices = buildServices
)

var rootCmd = &cobra.Command{
	Use:   "endee-rag",
	Short: "Semantic search and RAG over the Endee vector database",
	Long: `Ingest documents into an Endee index and answer questions from them.
Documents are split into overlapping word chunks, embedded and stored;
queries retrieve the closest chunks and ground an LLM answer in them.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "path to a YAML config file")
}

// commandError tags a failure with the message prefix shown to the user.
type commandError struct {
	prefix string
	err    error
}

func (e *commandError) Error() string { return e.prefix + ": " + e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

func fail(prefix string, err error) error {
	return &commandError{prefix: prefix, err: err}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	var ce *commandError
	switch {
	case errors.Is(err, models.ErrConfiguration):
		msg := strings.TrimPrefix(err.Error(), models.ErrConfiguration.Error()+": ")
		fmt.Fprintf(w, "✗ Configuration Error: %s\n", msg)
	case errors.As(err, &ce):
		fmt.Fprintf(w, "✗ %s: %v\n", ce.prefix, ce.err)
	default:
		fmt.Fprintf(w, "✗ Error: %v\n", err)
	}
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	cfg = c
	return nil
}

// services is everything a command may need, built from cfg.
type services struct {
	processor *parser.Processor
	store     rag.VectorStore
	meta      metadata.Store
	pipeline  *rag.Pipeline
	retriever *rag.Retriever
	rag       *rag.RAG
}

func (s *services) Close() error {
	if s.meta == nil {
		return nil
	}
	return s.meta.Close()
}

func buildServices(ctx context.Context, c *config.Config) (*services, error) {
	processor, err := parser.NewProcessor(c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.New(ctx, c.EmbedLLM)
	if err != nil {
		return nil, err
	}

	store, err := newVectorStore(c)
	if err != nil {
		return nil, err
	}

	meta, err := newMetadataStore(ctx, c)
	if err != nil {
		return nil, err
	}

	llm, err := llmservice.NewModel(c.LLM)
	if err != nil {
		meta.Close()
		return nil, fmt.Errorf("init llm: %w", err)
	}

	index := c.Endee.IndexName
	retriever := rag.NewRetriever(embedder, store, meta, index, c.RAG.TopK)
	return &services{
		processor: processor,
		store:     store,
		meta:      meta,
		pipeline:  rag.NewPipeline(processor, embedder, store, meta, index),
		retriever: retriever,
		rag:       rag.NewRAG(retriever, llmservice.NewGenerator(llm, c.LLM.Model)),
	}, nil
}

func newVectorStore(c *config.Config) (rag.VectorStore, error) {
	switch c.Endee.Backend {
	case config.BackendChromem:
		if err := helper.CreateFolder(c.Chromem.Path); err != nil {
			return nil, err
		}
		return chromemdb.NewStore(c.Chromem.Path)
	default:
		return endee.NewClient(c.Endee.BaseURL(), nil), nil
	}
}

func newMetadataStore(ctx context.Context, c *config.Config) (metadata.Store, error) {
	switch c.Metadata.Backend {
	case config.MetadataSQL:
		return db.Open(ctx, c.Metadata.DSN, c.Debug)
	default:
		return metadata.OpenFile(c.Metadata.File)
	}
}
