package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/hltv-harvester/internal/report"
	"github.com/pable/hltv-harvester/internal/stage"
)

var runAllCmd = &cobra.Command{
	Use:   "run-all",
	Short: "Run discovery, overview, map-stats, and perf-economy to convergence",
	Long: `Repeats the four stages in order until a full round makes no
progress, so one invocation drives a batch from discovery to fully
persisted data without needing to be looped by hand.`,
	Args: cobra.NoArgs,
	RunE: runRunAll,
}

func runRunAll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx := context.Background()
	st, t, d, err := stageDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	defer t.Close()

	all, err := stage.RunAll(ctx, d, cfg)
	if err != nil {
		return fmt.Errorf("run-all: %w", err)
	}
	report.PrintRunAllSummary(os.Stdout, all)
	return nil
}
