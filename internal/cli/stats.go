package cli

import (
	"github.com/spf13/cobra"

	"github.com/dialogroute/dialogroute/internal/model"
	"github.com/dialogroute/dialogroute/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

type statsOutput struct {
	store.Info
	model.Stats
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	stats, err := s.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	printJSON(statsOutput{Info: s.Info(cfg.DBPath), Stats: *stats})
}
