package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/hltv-harvester/internal/report"
	"github.com/pable/hltv-harvester/internal/stage"
)

var overviewLimit int

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Fetch and persist pending match overview pages",
	Args:  cobra.NoArgs,
	RunE:  runOverview,
}

func init() {
	overviewCmd.Flags().IntVar(&overviewLimit, "limit", 0, "override config batch.overview_batch_size (0 keeps the config value)")
}

func runOverview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if overviewLimit > 0 {
		cfg.Batch.OverviewBatchSize = overviewLimit
	}
	log := newLogger(cfg)

	ctx := context.Background()
	st, t, d, err := stageDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	defer t.Close()

	stats, err := stage.RunOverview(ctx, d, cfg.Batch.OverviewBatchSize)
	if err != nil {
		return fmt.Errorf("overview: %w", err)
	}
	report.PrintStageStats("overview", stats)
	return nil
}
