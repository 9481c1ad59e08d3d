package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/hltv-harvester/internal/report"
	"github.com/pable/hltv-harvester/internal/stage"
)

var mapStatsLimit int

var mapStatsCmd = &cobra.Command{
	Use:   "map-stats",
	Short: "Fetch and persist pending map-stats pages",
	Args:  cobra.NoArgs,
	RunE:  runMapStats,
}

func init() {
	mapStatsCmd.Flags().IntVar(&mapStatsLimit, "limit", 0, "override config batch.map_stats_batch_size (0 keeps the config value)")
}

func runMapStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mapStatsLimit > 0 {
		cfg.Batch.MapStatsBatchSize = mapStatsLimit
	}
	log := newLogger(cfg)

	ctx := context.Background()
	st, t, d, err := stageDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	defer t.Close()

	stats, err := stage.RunMapStats(ctx, d, cfg.Batch.MapStatsBatchSize)
	if err != nil {
		return fmt.Errorf("map-stats: %w", err)
	}
	report.PrintStageStats("map-stats", stats)
	return nil
}
