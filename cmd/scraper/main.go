package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aluiziolira/go-scrape-play/config"
	"github.com/aluiziolira/go-scrape-play/models"
	"github.com/aluiziolira/go-scrape-play/pipeline"
	"github.com/aluiziolira/go-scrape-play/scraper"
	"github.com/aluiziolira/go-scrape-play/suggest"
)

type options struct {
	query   string
	mode    string
	cfgFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	opts := &options{}
	var mode config.Mode

	cmd := &cobra.Command{
		Use:   "scraper -q QUERY -m MODE",
		Short: "Collect storefront suggestions and crawl application listings",
		Long: `Modes:
  s  print every suggestion offered for the query expanded with short suffixes
  r  crawl search results for the query
  d  crawl the applications of developer QUERY
  f  crawl the top free chart of every category in the categories file
  c  convert a stored batch to a tab-delimited export

Crawls persist {query}.json after every entry; rerun the same command to resume.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmd.ValidateRequiredFlags(); err != nil {
				return err
			}
			parsed, err := config.ParseMode(opts.mode)
			if err != nil {
				return err
			}
			mode = parsed
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return run(cmd, v, opts, mode)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.query, "query", "q", "", "search query, developer id, or batch name")
	flags.StringVarP(&opts.mode, "mode", "m", "", "work mode: s, r, d, f or c")
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default ./playscraper.yaml)")
	flags.String("output-dir", ".", "directory for batch and export files")
	flags.String("store", "json", "batch store: json, sqlite, or dual")
	flags.String("date-order", "ymd", "exported date order: ymd or dmy")
	flags.String("layout", "compact", "export column layout: compact or extended")
	flags.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flags.BoolP("verbose", "v", false, "enable verbose logging")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("mode")

	for key, name := range map[string]string{
		"output_dir":   "output-dir",
		"store":        "store",
		"date_order":   "date-order",
		"layout":       "layout",
		"metrics_addr": "metrics-addr",
		"verbose":      "verbose",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper, opts *options, mode config.Mode) error {
	cfg, err := config.Load(v, opts.cfgFile)
	if err != nil {
		return err
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := scraper.NewScraper(cfg, logger)
	if err != nil {
		logger.Error("initialising scraper", slog.Any("error", err))
		return err
	}

	metricsServer := startMetricsServer(cfg, s.Metrics, logger)
	defer stopMetricsServer(metricsServer, logger)

	out := cmd.OutOrStdout()
	switch mode {
	case config.ModeSuggest:
		return runSuggest(ctx, cfg, suggest.NewClient(cfg), s.Metrics, logger, out, cmd.ErrOrStderr(), opts.query)
	case config.ModeConvert:
		return runConvert(cfg, logger, out, opts.query)
	default:
		return runCrawl(ctx, cfg, s, logger, out, mode, opts.query)
	}
}

func runSuggest(ctx context.Context, cfg *config.Config, source suggest.Suggester, metrics *scraper.Metrics, logger *slog.Logger, out, summaryOut io.Writer, query string) error {
	collector, err := suggest.NewCollector(source, cfg, metrics, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	pool, err := collector.Collect(ctx, query, func(s string) {
		fmt.Fprintln(out, s)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("collect suggestions: %w", err)
	}

	printSuggestSummary(summaryOut, query, pool.Len(), collector.Probes(), time.Since(start))
	return nil
}

func runConvert(cfg *config.Config, logger *slog.Logger, out io.Writer, query string) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	path, rows, err := pipeline.NewExporter(store, cfg, logger).Export(query)
	if err != nil {
		return fmt.Errorf("export %q: %w", query, err)
	}
	if path != "" {
		fmt.Fprintf(out, "Done: %s converted to %s (%d rows)\n", query, path, rows)
	}
	return nil
}

func runCrawl(ctx context.Context, cfg *config.Config, s *scraper.Scraper, logger *slog.Logger, out io.Writer, mode config.Mode, query string) error {
	batchKey := query
	if mode == config.ModeCategories {
		batchKey = config.CategoriesBatch
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	logger.Info("starting crawl",
		slog.String("query", query),
		slog.String("mode", string(mode)),
		slog.String("store", store.Name()),
	)

	driver := pipeline.NewDriver(store, s, s.Metrics, logger)
	_, result, runErr := driver.Run(ctx, batchKey, func(ctx context.Context) ([]*models.Entry, error) {
		return s.Discover(ctx, mode, query)
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("crawl failed", slog.Any("error", runErr))
		return runErr
	}
	if runErr != nil {
		logger.Warn("crawl interrupted, rerun to resume", slog.String("query", batchKey))
	}

	path, _, err := pipeline.NewExporter(store, cfg, logger).Export(batchKey)
	if err != nil {
		return fmt.Errorf("export %q: %w", batchKey, err)
	}

	printCrawlSummary(out, result, store.Name(), path)
	return nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (pipeline.Store, error) {
	jsonStore := pipeline.NewJSONStore(cfg.OutputDir)
	switch cfg.Store {
	case "sqlite":
		return pipeline.NewSQLiteStore(cfg.SQLitePath)
	case "dual":
		sqliteStore, err := pipeline.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return pipeline.NewMirrorStore(jsonStore, sqliteStore, logger), nil
	default:
		return jsonStore, nil
	}
}

func closeStore(store pipeline.Store, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("close store", slog.Any("error", err))
	}
}

func startMetricsServer(cfg *config.Config, metrics *scraper.Metrics, logger *slog.Logger) *http.Server {
	if cfg.MetricsAddr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	logger.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	return server
}

func stopMetricsServer(server *http.Server, logger *slog.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

// newLogger writes to stderr; stdout carries suggestions and summaries.
func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
