package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// CacheStats represents the cache stats API response.
type CacheStats struct {
	EntryCount int64  `json:"entryCount"`
	OldestAge  string `json:"oldestAge"`
}

// CacheCmd creates the cache parent command.
func CacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the answer cache",
		Long:  "Inspect and clear cached deep-search answers",
	}

	cmd.AddCommand(CacheStatsCmd())
	cmd.AddCommand(CacheClearCmd())

	return cmd
}

// CacheStatsCmd creates the cache stats command.
func CacheStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCacheStats(cmd, outputJSON)
		},
	}

	return cmd
}

func runCacheStats(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/cache/stats")
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	var stats CacheStats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return fmt.Errorf("failed to parse cache stats: %w", err)
	}

	if outputJSON {
		out, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Printf("Entries: %d\n", stats.EntryCount)
		fmt.Printf("Oldest entry age: %s\n", stats.OldestAge)
	}

	return nil
}

// CacheClearCmd creates the cache clear command.
func CacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(cmd)
		},
	}

	return cmd
}

func runCacheClear(cmd *cobra.Command) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if _, err := api.Delete("/cache"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Println("Cache cleared")
	return nil
}
