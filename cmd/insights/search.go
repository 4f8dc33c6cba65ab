package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"insights/internal/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the vault",
	Long: `Search builds the index and ranks documents against the query.

Scores combine cosine similarity with a recency boost and a small sentiment
boost. Dense embeddings are used when configured and fall back to TF-IDF.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	a, err := setup(cmd, cliNotices)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.svc.RebuildIndex(cmd.Context()); err != nil {
		return err
	}
	results, err := a.svc.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	if searchJSON {
		return printJSON(cmd, results)
	}
	printResults(cmd, query, results)
	return nil
}

func printResults(cmd *cobra.Command, query string, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Printf("No results for %q\n", query)
		return
	}
	cmd.Printf("%d results for %q\n\n", len(results), query)
	for i, r := range results {
		cmd.Printf("%d. %s (%s)\n", i+1, r.Title, r.Path)
		cmd.Printf("   sim %.3f · rec %.3f · sent %.3f · score %.3f\n",
			r.Similarity, r.RecencyBoost, r.SentimentBoost, r.Score)
		if r.Excerpt != "" {
			cmd.Printf("   %s\n", r.Excerpt)
		}
		cmd.Println()
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
