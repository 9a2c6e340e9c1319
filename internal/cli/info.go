package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the indices held by the vector store",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	indices, err := svc.store.ListIndices(ctx)
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "No indices found.")
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Endee Indices:")
	fmt.Fprintln(out)
	for _, idx := range indices {
		fmt.Fprintf(out, "Index: %s\n", idx.Name)
		fmt.Fprintf(out, "  - Dimension: %d\n", idx.Dimension)
		fmt.Fprintf(out, "  - Total elements: %d\n", idx.TotalElements)
		fmt.Fprintf(out, "  - Space type: %s\n", orUnknown(idx.SpaceType))
		fmt.Fprintf(out, "  - Precision: %s\n", orUnknown(idx.Precision))
		fmt.Fprintln(out)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
