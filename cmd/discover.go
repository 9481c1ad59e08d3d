package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/hltv-harvester/internal/report"
	"github.com/pable/hltv-harvester/internal/stage"
)

var discoverMaxOffset int

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Walk the results listing and record match ids seen",
	Args:  cobra.NoArgs,
	RunE:  runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverMaxOffset, "max-offset", 0, "override config pagination.max_offset (0 keeps the config value)")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if discoverMaxOffset > 0 {
		cfg.Pagination.MaxOffset = discoverMaxOffset
	}
	log := newLogger(cfg)

	ctx := context.Background()
	st, t, d, err := stageDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	defer t.Close()

	stats, err := stage.RunDiscovery(ctx, d, cfg.Pagination)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	report.PrintStageStats("discovery", stats)
	return nil
}
