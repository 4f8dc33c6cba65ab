package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"insights/internal/config"
	"insights/internal/domain"
	"insights/internal/embedding"
	"insights/internal/embedding/tfidf"
	"insights/internal/index"
	logpkg "insights/internal/logger"
	"insights/internal/metrics"
	"insights/internal/rumination"
	"insights/internal/search"
	"insights/internal/service"
	"insights/internal/state"
	"insights/internal/tui"
	"insights/internal/vault"
	"insights/internal/watcher"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "insights",
	Short: "Semantic search and rumination over a markdown vault",
	Long: `insights indexes a folder of markdown notes with TF-IDF (and optionally dense
embeddings), answers ranked searches, and periodically suggests pairs of
related notes that are not yet linked.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./insights.yaml or ~/.config/insights/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logpkg.NewLogger(cfg.Logging.Env, level)
}

// stderrNotifier prints notices for the plain CLI commands.
var stderrNotifier = domain.NotifierFunc(func(msg string) {
	fmt.Fprintln(os.Stderr, "insights:", msg)
})

// logNotifier sends notices to the log, for the long-running commands.
func logNotifier(l *zap.Logger) domain.Notifier {
	return domain.NotifierFunc(func(msg string) { l.Info("notice", zap.String("message", msg)) })
}

// app is the composition root shared by every subcommand.
type app struct {
	cfg       *config.AppConfig
	logger    *zap.Logger
	registry  *prometheus.Registry
	vault     *vault.Store
	svc       *service.Insights
	ruminator *rumination.Ruminator
	state     state.Store
	notices   *tui.Notifier
}

func newApp(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, fallback domain.Notifier) (*app, error) {
	notices := tui.NewNotifier(fallback)

	store, err := vault.New(cfg.Vault.Path, vault.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	emb, err := embedding.New(cfg.Embedder, logger, m)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	idf, err := tfidf.ParseIDFMode(cfg.Index.IDF)
	if err != nil {
		return nil, err
	}

	builder := index.NewBuilder(store,
		index.WithEmbedder(emb),
		index.WithIDFMode(idf),
		index.WithWorkers(cfg.Index.Workers),
		index.WithLogger(logger),
		index.WithMetrics(m),
	)
	engine := search.NewEngine(store,
		search.WithEmbedder(emb),
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithHalfLife(cfg.Search.RecencyHalfLifeDays),
		search.WithNotifier(notices),
		search.WithLogger(logger),
		search.WithMetrics(m),
	)
	svc := service.New(builder, engine,
		service.WithNotifier(notices),
		service.WithLogger(logger),
	)

	st, err := state.Open(cfg.State.Backend, cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("open rumination state: %w", err)
	}
	novelty, err := st.Load(ctx)
	if err != nil {
		logger.Warn("rumination state unreadable, starting empty",
			zap.String("path", cfg.State.Path), zap.Error(err))
		novelty = domain.NewNoveltyState()
	}

	r := rumination.New(ruminationConfig(cfg.Rumination), svc, novelty, st.Save,
		rumination.WithLinkGraph(store),
		rumination.WithDigestWriter(store),
		rumination.WithNotifier(notices),
		rumination.WithLogger(logger),
		rumination.WithMetrics(m),
	)
	svc.SetRuminator(r)

	logger.Debug("insights ready",
		zap.String("vault", store.Root()),
		zap.String("embedder", cfg.Embedder.Provider),
		zap.String("state_backend", cfg.State.Backend),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		vault:     store,
		svc:       svc,
		ruminator: r,
		state:     st,
		notices:   notices,
	}, nil
}

// setup loads config and builds the app for a subcommand.
func setup(cmd *cobra.Command, fallback func(*zap.Logger) domain.Notifier) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, logger, fallback(logger))
}

func cliNotices(*zap.Logger) domain.Notifier { return stderrNotifier }

func (a *app) Close() {
	a.ruminator.Stop()
	if err := a.state.Close(); err != nil {
		a.logger.Warn("close rumination state", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// watch runs the vault watcher until ctx is done, rebuilding the index after each burst of changes.
func (a *app) watch(ctx context.Context) error {
	w := watcher.New(a.vault.Root(), func() {
		if err := a.svc.RebuildIndex(ctx); err != nil {
			a.logger.Warn("rebuild after change failed", zap.Error(err))
		}
	},
		watcher.WithDebounce(time.Duration(a.cfg.Vault.DebounceMs)*time.Millisecond),
		watcher.WithIgnore(a.cfg.Rumination.DigestNotePath),
		watcher.WithLogger(a.logger),
	)
	return w.Run(ctx)
}

func ruminationConfig(c config.RuminationConfig) rumination.Config {
	return rumination.Config{
		Enabled:           c.Enabled,
		Interval:          time.Duration(c.IntervalMinutes) * time.Minute,
		MinSimilarity:     c.MinSimilarity,
		UseLinkGraph:      c.UseLinkGraphWeighting,
		WriteDigest:       c.WriteDigest,
		DigestPath:        c.DigestNotePath,
		NoveltyWeight:     c.NoveltyWeight,
		FocusTags:         c.FocusTags,
		AllowedStartHour:  c.AllowedStartHour,
		AllowedEndHour:    c.AllowedEndHour,
		MaxRepeatsPerPair: c.MaxRepeatsPerPair,
		BridgeSummary:     c.BridgeSummary,
	}
}
