package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/hltv-harvester/internal/report"
	"github.com/pable/hltv-harvester/internal/stage"
)

var perfEconomyLimit int

var perfEconomyCmd = &cobra.Command{
	Use:   "perf-economy",
	Short: "Fetch and persist pending performance and economy pages",
	Args:  cobra.NoArgs,
	RunE:  runPerfEconomy,
}

func init() {
	perfEconomyCmd.Flags().IntVar(&perfEconomyLimit, "limit", 0, "override config batch.perf_economy_batch_size (0 keeps the config value)")
}

func runPerfEconomy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if perfEconomyLimit > 0 {
		cfg.Batch.PerfEconomyBatchSize = perfEconomyLimit
	}
	log := newLogger(cfg)

	ctx := context.Background()
	st, t, d, err := stageDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	defer t.Close()

	stats, err := stage.RunPerfEconomy(ctx, d, cfg.Batch.PerfEconomyBatchSize)
	if err != nil {
		return fmt.Errorf("perf-economy: %w", err)
	}
	report.PrintStageStats("perf-economy", stats)
	return nil
}
