package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/hltv-harvester/internal/report"
)

var (
	quarantineEntity string
	quarantineLimit  int
)

var quarantineCmd = &cobra.Command{
	Use:   "quarantine",
	Short: "List hard-rejected records pending audit",
	Args:  cobra.NoArgs,
	RunE:  runQuarantine,
}

func init() {
	quarantineCmd.Flags().StringVar(&quarantineEntity, "entity", "", "filter by entity type (match_overview|map_stats|perf_economy)")
	quarantineCmd.Flags().IntVar(&quarantineLimit, "limit", 50, "maximum entries to list")
}

func runQuarantine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.ListQuarantine(quarantineEntity, quarantineLimit)
	if err != nil {
		return fmt.Errorf("list quarantine: %w", err)
	}
	report.PrintQuarantineTable(os.Stdout, entries)
	return nil
}
