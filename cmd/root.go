// Package cmd implements the CLI commands for hltv-harvester: stage-by-
// stage pipeline runs (discovery, overview, map-stats, perf-economy), a
// combined run-all loop, host-local reprocessing of archived pages, and a
// quarantine audit listing.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pable/hltv-harvester/internal/archive"
	"github.com/pable/hltv-harvester/internal/config"
	"github.com/pable/hltv-harvester/internal/report"
	"github.com/pable/hltv-harvester/internal/stage"
	"github.com/pable/hltv-harvester/internal/store"
	"github.com/pable/hltv-harvester/internal/transport"
)

// configPath is the YAML config file path, set via the --config flag.
var configPath string

// silent suppresses the verbose section legends report prints before tables.
var silent bool

// logLevelFlag overrides Config.LogLevel when non-empty.
var logLevelFlag string

var rootCmd = &cobra.Command{
	Use:   "hltv-harvester",
	Short: "Historical HLTV.org match-data harvester",
	Long: `Walks HLTV.org's results listing and match pages, archiving every
fetched HTML page to disk and persisting parsed, validated records to a
local SQLite database. Runs are resumable: each stage only drains work
the previous run left pending.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "hide section legends before each table")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "override config log_level (debug|info|warn|error)")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(mapStatsCmd)
	rootCmd.AddCommand(perfEconomyCmd)
	rootCmd.AddCommand(runAllCmd)
	rootCmd.AddCommand(reprocessCmd)
	rootCmd.AddCommand(quarantineCmd)
}

// loadConfig reads and validates the configuration at configPath, applying
// --log-level and --silent on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	report.Verbose = !silent
	return cfg, nil
}

// newLogger builds a zerolog logger at the level named by cfg.LogLevel,
// writing structured JSON when cfg.LogFormat is "json" and a
// human-readable console format otherwise.
func newLogger(cfg *config.Config) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.LogFormat == "json" {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	log = log.Level(level)
	return &log
}

// openStore creates the data directory if needed and opens the SQLite
// database named by the config's paths.
func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(cfg.Paths.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.Open(cfg.Paths.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// openArchive returns an Archive rooted under the config's data directory.
func openArchive(cfg *config.Config) *archive.Archive {
	return archive.New(cfg.Paths.DataDir)
}

// startTransport constructs and launches the browser-backed transport used
// by every fetch-driving command.
func startTransport(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*transport.Transport, error) {
	t := transport.New(cfg.Transport, log)
	if err := t.Start(ctx); err != nil {
		return nil, fmt.Errorf("start transport: %w", err)
	}
	return t, nil
}

// stageDeps opens the store, the archive, and a live browser transport and
// bundles them into stage.Deps, the shape every pipeline command needs.
// The caller owns closing st and t.
func stageDeps(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*store.Store, *transport.Transport, stage.Deps, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, stage.Deps{}, err
	}
	t, err := startTransport(ctx, cfg, log)
	if err != nil {
		st.Close()
		return nil, nil, stage.Deps{}, err
	}
	d := stage.Deps{
		Transport: t,
		Store:     st,
		Archive:   openArchive(cfg),
		Log:       log,
		Now:       time.Now,
	}
	return st, t, d, nil
}
