package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// StatsResponse mirrors the server's GET /v1/stats response body.
type StatsResponse struct {
	RecordCount     int      `json:"record_count"`
	LibraryCount    int      `json:"library_count"`
	AttachedIndexes []string `json:"attached_indexes"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Long:  `Display record and library counts plus the indexes currently attached to the chunks collection.`,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	var stats StatsResponse
	if err := client.Get("/v1/stats", &stats); err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if outputJSON {
		return PrintJSON(stats)
	}

	fmt.Println("vectord server statistics")
	PrintKeyValue([][2]string{
		{"Server", serverURL},
		{"Chunks", fmt.Sprintf("%d", stats.RecordCount)},
		{"Libraries", fmt.Sprintf("%d", stats.LibraryCount)},
		{"Attached indexes", strings.Join(stats.AttachedIndexes, ", ")},
	})

	return nil
}
