package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"insights/internal/domain"
	"insights/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	Long: `tui opens a full-screen search box with a rumination pane.

Enter searches, ctrl+r runs a rumination scan, tab switches panes and
up/down moves through results. The vault is re-indexed on file changes
and rumination runs on its timer while the UI is open.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := zap.NewNop()
	// the alt screen owns the terminal; only log when asked to
	if verbose {
		if logger, err = newLogger(cfg); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger, stderrNotifier)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Vault.IndexOnStartup {
		if err := a.svc.RebuildIndex(ctx); err != nil {
			return err
		}
	}

	p := tea.NewProgram(tui.New(ctx, a.svc, summary(a)), tea.WithAltScreen(), tea.WithContext(ctx))
	a.notices.Attach(p)

	bg, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ruminator.Start(bg)
	if cfg.Vault.AutoUpdateOnFileChange {
		go func() {
			if err := a.watch(bg); err != nil {
				a.notices.Notify("file watching stopped: " + err.Error())
			}
		}()
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func summary(a *app) string {
	st, err := a.svc.Stats()
	if errors.Is(err, domain.ErrIndexUnavailable) {
		return "index not built yet"
	}
	mode := "tf-idf"
	if st.Dense {
		mode = a.cfg.Embedder.Provider
	}
	return fmt.Sprintf("%d documents · %d terms · %s · rumination %s", st.Documents, st.Terms, mode, st.Rumination)
}
