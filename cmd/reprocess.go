package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/hltv-harvester/internal/reprocess"
)

var (
	reprocessStage   string
	reprocessWorkers int
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Re-parse and re-persist already-archived pages without fetching",
	Long: `Walks the on-disk HTML archive for one stage and replays
parse, validate, and persist against it, touching no transport. Useful
after a parser fix or a relaxed validation rule, to pick up pages a live
run already fetched without re-fetching them.`,
	Args: cobra.NoArgs,
	RunE: runReprocess,
}

func init() {
	reprocessCmd.Flags().StringVar(&reprocessStage, "stage", "", "stage to reprocess: overview|map-stats|perf-economy (required)")
	reprocessCmd.Flags().IntVar(&reprocessWorkers, "workers", 4, "number of concurrent reprocessing workers")
	_ = reprocessCmd.MarkFlagRequired("stage")
}

func runReprocess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	var target reprocess.Stage
	switch reprocessStage {
	case "overview":
		target = reprocess.StageOverview
	case "map-stats":
		target = reprocess.StageMapStats
	case "perf-economy":
		target = reprocess.StagePerfEconomy
	default:
		return fmt.Errorf("unknown --stage %q (want overview|map-stats|perf-economy)", reprocessStage)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	ar := openArchive(cfg)

	stats, err := reprocess.Run(ar, st, log, target, reprocessWorkers, time.Now)
	if err != nil {
		return fmt.Errorf("reprocess: %w", err)
	}

	fmt.Printf("reprocess %-14s scanned=%-4d reprocessed=%-4d failed=%d\n",
		reprocessStage, stats.Scanned, stats.Reprocessed, stats.Failed)
	return nil
}
