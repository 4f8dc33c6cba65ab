package main

import (
	"strings"

	"github.com/spf13/cobra"

	"insights/internal/domain"
)

var (
	ruminateForce bool
	ruminateJSON  bool
)

var ruminateCmd = &cobra.Command{
	Use:   "ruminate",
	Short: "Run one rumination scan and print suggested note pairs",
	Long: `Ruminate compares every pair of notes and suggests related ones.

Outside the allowed hours the scan is skipped unless --force is given.
Suggested pairs are recorded so repeated suggestions fade and eventually stop.`,
	Args: cobra.NoArgs,
	RunE: runRuminate,
}

func init() {
	ruminateCmd.Flags().BoolVarP(&ruminateForce, "force", "f", false, "ignore the allowed-hours window")
	ruminateCmd.Flags().BoolVar(&ruminateJSON, "json", false, "output suggestions as JSON")
	rootCmd.AddCommand(ruminateCmd)
}

func runRuminate(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd, cliNotices)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.svc.RebuildIndex(cmd.Context()); err != nil {
		return err
	}
	suggestions, err := a.svc.RunRumination(cmd.Context(), ruminateForce)
	if err != nil {
		return err
	}

	if ruminateJSON {
		return printJSON(cmd, suggestions)
	}
	printSuggestions(cmd, suggestions)
	return nil
}

func printSuggestions(cmd *cobra.Command, suggestions []domain.Suggestion) {
	if len(suggestions) == 0 {
		cmd.Println("No suggestions.")
		return
	}
	for i, s := range suggestions {
		cmd.Printf("%d. %s ⇄ %s\n", i+1, s.ATitle, s.BTitle)
		cmd.Printf("   score %.3f · sim %.3f · link %.3f · novelty %.3f\n",
			s.Score, s.Similarity, s.LinkAffinity, s.NoveltyBoost)
		if len(s.SharedTerms) > 0 {
			cmd.Printf("   shared: %s\n", strings.Join(s.SharedTerms, ", "))
		}
		if s.Bridge != "" {
			cmd.Printf("   %s\n", s.Bridge)
		}
	}
}
