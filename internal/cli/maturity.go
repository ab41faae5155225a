package cli

import (
	"github.com/spf13/cobra"

	"github.com/dialogroute/dialogroute/internal/maturity"
)

func init() {
	maturityCmd := &cobra.Command{
		Use:   "maturity",
		Short: "Run a maturity self-assessment",
		Long:  "Aggregate store statistics into a scored, persisted maturity snapshot.",
		Run:   runMaturity,
	}
	maturityCmd.Flags().String("by", "cli", "Who requested the analysis")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show past maturity snapshots",
		Run:   runMaturityHistory,
	}
	historyCmd.Flags().IntP("limit", "l", 10, "Max snapshots")

	maturityCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(maturityCmd)
}

func runMaturity(cmd *cobra.Command, args []string) {
	by, _ := cmd.Flags().GetString("by")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	snap, err := maturity.NewEngine(s, logger).AnalyzeMaturity(cmd.Context(), by)
	if err != nil {
		exitErr("analyze maturity", err)
	}
	printJSON(snap)
}

func runMaturityHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	snaps, err := s.ListSnapshots(cmd.Context(), limit)
	if err != nil {
		exitErr("maturity history", err)
	}
	printJSON(snaps)
}
