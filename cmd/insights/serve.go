package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	chiTransport "insights/internal/transport/chi"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search and rumination over HTTP",
	Long: `serve runs the vault watcher and the rumination timer and exposes

  GET  /search?q=&limit=
  POST /ruminate?force=
  POST /index/rebuild
  GET  /healthz
  GET  /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd, logNotifier)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.HTTP.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := chiTransport.NewServer(a.svc,
		chiTransport.WithLogger(a.logger),
		chiTransport.WithGatherer(a.registry),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		a.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if a.cfg.Vault.IndexOnStartup {
			if err := a.svc.RebuildIndex(ctx); err != nil {
				a.logger.Warn("initial index failed", zap.Error(err))
			}
		}
		a.ruminator.Start(ctx)
		if !a.cfg.Vault.AutoUpdateOnFileChange {
			<-ctx.Done()
			return nil
		}
		return a.watch(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("error during shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("server stopped gracefully")
	return nil
}
