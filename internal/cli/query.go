package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"endee-rag/internal/helper"
	"endee-rag/internal/models"
)

const (
	queryErrPrefix = "Error during query"
	previewRunes   = 100
	rule           = "============================================================"
)

var (
	queryTopK       int
	querySearchOnly bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Search the index and answer a question",
	Long: `Embeds the question, retrieves the closest chunks from the index and asks
the LLM to answer using only those chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	queryCmd.Flags().BoolVar(&querySearchOnly, "search-only", false, "only show retrieved chunks, skip answer generation")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx := context.Background()
	out := cmd.OutOrStdout()

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return fail(queryErrPrefix, err)
	}
	defer svc.Close()

	docs, err := svc.retriever.Retrieve(ctx, query, queryTopK)
	if err != nil {
		return fail(queryErrPrefix, err)
	}
	if len(docs) == 0 {
		fmt.Fprintln(out, "No relevant documents found.")
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Query: %s\n", query)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out)
	printDocuments(out, docs)

	if querySearchOnly {
		return nil
	}

	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Generating answer...")
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out)

	answer, err := svc.rag.Answer(ctx, query, docs)
	if err != nil {
		return fail(queryErrPrefix, err)
	}

	fmt.Fprintf(out, "Answer:\n%s\n\n", answer.Content)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Tokens used: %d\n", answer.Usage.TotalTokens)
	fmt.Fprintln(out, rule)
	return nil
}

func printDocuments(out io.Writer, docs []models.RetrievedDocument) {
	fmt.Fprintf(out, "Retrieved %d relevant documents:\n\n", len(docs))
	for _, d := range docs {
		fmt.Fprintf(out, "[%d] %s (Score: %.3f)\n", d.Rank, d.Source, d.Score)
		fmt.Fprintf(out, "    %s...\n", helper.Truncate(d.Text, previewRunes))
		fmt.Fprintln(out)
	}
}
