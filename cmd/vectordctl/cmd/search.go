package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// QueryResult mirrors the server's wire result for a single match.
type QueryResult struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Confidence float32 `json:"confidence"`
}

// QueryResponse mirrors the server's POST /v1/query response body.
type QueryResponse struct {
	Results []QueryResult `json:"results"`
}

var (
	searchCollection string
	searchIndexType  string
	searchLimit      int
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Run a query against an attached index",
	Long:  `Embed the given text and search the named collection's attached index for nearest matches.`,
	Args:  cobra.ExactArgs(1),
	Example: `  # Search the default "chunks" collection with the cosine index
  vectordctl search "what is a vector store" --index cosine

  # Search with a custom limit
  vectordctl search "greedy traversal" --index nsw --limit 5`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCollection, "collection", "c", "chunks", "Collection to search")
	searchCmd.Flags().StringVarP(&searchIndexType, "index", "i", "cosine", "Index type: cosine, ivf, or nsw")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	body := map[string]interface{}{
		"collection": searchCollection,
		"index_type": searchIndexType,
		"text":       args[0],
		"limit":      searchLimit,
	}

	var resp QueryResponse
	if err := client.Post("/v1/query", body, &resp); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if outputJSON {
		return PrintJSON(resp)
	}

	PrintResults(resp.Results)
	return nil
}
