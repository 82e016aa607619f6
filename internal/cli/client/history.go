package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// HistoryItem represents a past search from the API.
type HistoryItem struct {
	ID           string   `json:"id"`
	Query        string   `json:"query"`
	SubQueries   []string `json:"searchQueries"`
	TotalResults int      `json:"totalResults"`
	Confidence   float64  `json:"confidence"`
	AIGenerated  bool     `json:"aiGenerated"`
	CacheHit     bool     `json:"cacheHit"`
	CreatedAt    string   `json:"created_at"`
}

// HistoryPage represents the paginated history response.
type HistoryPage struct {
	Items   []HistoryItem `json:"items"`
	Cursor  string        `json:"cursor,omitempty"`
	HasMore bool          `json:"has_more"`
}

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past searches",
		Long:  "Lists your past deep searches, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runHistory(cmd, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	resp, err := api.Get("/searches?" + params.Encode())
	if err != nil {
		return fmt.Errorf("failed to list searches: %w", err)
	}

	var page HistoryPage
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}

	if outputJSON {
		out, _ := json.MarshalIndent(page, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	if len(page.Items) == 0 {
		fmt.Println("No searches found.")
		return nil
	}

	for i, item := range page.Items {
		flags := ""
		if item.CacheHit {
			flags = " (cached)"
		}
		fmt.Printf("%d. %s%s\n", i+1, item.Query, flags)
		fmt.Printf("   Results: %d  Confidence: %.2f  At: %s\n", item.TotalResults, item.Confidence, item.CreatedAt)
		if i < len(page.Items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if page.HasMore && page.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", page.Cursor)
	}

	return nil
}
