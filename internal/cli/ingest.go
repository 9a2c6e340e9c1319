package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"endee-rag/internal/helper"
	"endee-rag/internal/models"
	"endee-rag/internal/parser"
)

const ingestErrPrefix = "Error during ingestion"

var (
	ingestFile      string
	ingestDirectory string
	ingestExtension string
	ingestDryRun    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a file or directory into the index",
	Long: `Splits documents into overlapping word chunks, embeds them and upserts the
vectors into the index. Chunk metadata is saved once the upsert succeeds.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "document to ingest")
	ingestCmd.Flags().StringVarP(&ingestDirectory, "directory", "d", "", "directory of documents to ingest")
	ingestCmd.Flags().StringVarP(&ingestExtension, "extension", "e", ".txt", "file extension to pick up from --directory")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "print the chunks without embedding or storing them")
	ingestCmd.MarkFlagsMutuallyExclusive("file", "directory")
	ingestCmd.MarkFlagsOneRequired("file", "directory")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestDryRun {
		return runDryRun(cmd)
	}

	ctx := context.Background()
	out := cmd.OutOrStdout()
	svc, err := newServices(ctx, cfg)
	if err != nil {
		return fail(ingestErrPrefix, err)
	}
	defer svc.Close()

	if err := svc.pipeline.EnsureIndex(ctx); err != nil {
		return fail(ingestErrPrefix, err)
	}

	if ingestFile != "" {
		res, err := svc.pipeline.IngestFile(ctx, ingestFile)
		if err != nil {
			return fail(ingestErrPrefix, err)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "✓ Successfully ingested: %s\n", res.File)
		fmt.Fprintf(out, "  - Chunks created: %d\n", res.Chunks)
		fmt.Fprintf(out, "  - Vectors stored: %d\n", res.VectorsStored)
		return nil
	}

	results, err := svc.pipeline.IngestDirectory(ctx, ingestDirectory, ingestExtension)
	if err != nil {
		return fail(ingestErrPrefix, err)
	}

	var chunks, vectors int
	for _, r := range results {
		chunks += r.Chunks
		vectors += r.VectorsStored
		if r.Status == models.StatusError {
			fmt.Fprintf(out, "✗ %s: %s\n", r.File, r.Error)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Ingestion complete!")
	fmt.Fprintf(out, "  - Files processed: %d\n", len(results))
	fmt.Fprintf(out, "  - Total chunks: %d\n", chunks)
	fmt.Fprintf(out, "  - Total vectors stored: %d\n", vectors)
	return nil
}

func runDryRun(cmd *cobra.Command) error {
	processor, err := parser.NewProcessor(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return err
	}

	files := []string{ingestFile}
	if ingestDirectory != "" {
		entries, err := os.ReadDir(ingestDirectory)
		if err != nil {
			return fail(ingestErrPrefix, err)
		}
		files = files[:0]
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ingestExtension) {
				files = append(files, filepath.Join(ingestDirectory, e.Name()))
			}
		}
	}

	for _, f := range files {
		chunks, err := processor.ProcessDocument(f)
		if err != nil {
			return fail(ingestErrPrefix, err)
		}
		helper.PrettyPrint(cmd.OutOrStdout(), chunks)
	}
	return nil
}
