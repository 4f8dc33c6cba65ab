package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index fresh and ruminate on a timer until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := setup(cmd, logNotifier)
	if err != nil {
		return err
	}
	defer a.Close()

	// a failed first build is not fatal; the next change retries it
	if err := a.svc.RebuildIndex(ctx); err != nil {
		a.logger.Warn("initial index failed", zap.Error(err))
	}
	a.ruminator.Start(ctx)

	if err := a.watch(ctx); err != nil {
		return err
	}
	a.logger.Info("shutting down")
	return nil
}
