package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the deep-search API request.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse mirrors the deep-search message object.
type AskResponse struct {
	Role  string `json:"role"`
	Type  string `json:"type"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
	Timestamp string `json:"timestamp"`
	Metadata  struct {
		Query         string   `json:"query"`
		Decomposition []string `json:"decomposition"`
		TotalResults  int      `json:"totalResults"`
		Sources       []string `json:"sources"`
		Confidence    float64  `json:"confidence"`
		AIGenerated   bool     `json:"aiGenerated"`
		CacheHit      bool     `json:"cacheHit"`
	} `json:"metadata"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question",
		Long:  "Runs a deep web search and prints a synthesized, cited answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runAsk(cmd *cobra.Command, question string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	body, err := api.PostRaw("/deep-search", AskRequest{Query: question})
	if err != nil {
		return fmt.Errorf("deep search failed: %w", err)
	}

	if outputJSON {
		var pretty json.RawMessage = body
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	var resp AskResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(resp.Parts) > 0 {
		fmt.Println(resp.Parts[0].Text)
	}

	if len(resp.Metadata.Decomposition) > 1 {
		fmt.Printf("\nSub-queries:\n")
		for _, sq := range resp.Metadata.Decomposition {
			fmt.Printf("  - %s\n", sq)
		}
	}

	if len(resp.Metadata.Sources) > 0 {
		fmt.Printf("\nSources:\n")
		for i, src := range resp.Metadata.Sources {
			fmt.Printf("  %d. %s\n", i+1, src)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("-", 40))
	fmt.Printf("Results: %d  Confidence: %.2f  AI-generated: %t", resp.Metadata.TotalResults, resp.Metadata.Confidence, resp.Metadata.AIGenerated)
	if resp.Metadata.CacheHit {
		fmt.Print("  (cached)")
	}
	fmt.Println()

	return nil
}
