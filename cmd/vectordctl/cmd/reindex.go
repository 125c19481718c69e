package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex <index_type>",
	Short: "Rebuild an attached index from the current store contents",
	Long:  `Trigger a full rebuild of the named index type against the chunks collection.`,
	Args:  cobra.ExactArgs(1),
	Example: `  # Rebuild the IVF index after a bulk load
  vectordctl reindex ivf`,
	RunE: runReindex,
}

var reindexCollection string

func init() {
	reindexCmd.Flags().StringVarP(&reindexCollection, "collection", "c", "chunks", "Collection to reindex")
}

func runReindex(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	path := fmt.Sprintf("/v1/collections/%s/reindex/%s", reindexCollection, args[0])

	var result map[string]interface{}
	if err := client.Post(path, nil, &result); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	if outputJSON {
		return PrintJSON(result)
	}

	fmt.Printf("Rebuilt %s index for collection %s\n", args[0], reindexCollection)
	return nil
}
