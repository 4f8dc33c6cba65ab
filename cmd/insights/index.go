package main

import (
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index once and print a summary",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd, cliNotices)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.svc.RebuildIndex(cmd.Context()); err != nil {
		return err
	}
	st, err := a.svc.Stats()
	if err != nil {
		return err
	}
	dense := "off"
	if st.Dense {
		dense = "on"
	}
	cmd.Printf("Indexed %d documents (%d terms, dense %s)\n", st.Documents, st.Terms, dense)
	return nil
}
