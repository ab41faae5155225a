package cli

import (
	"github.com/spf13/cobra"

	"github.com/dialogroute/dialogroute/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "Show recent conversation audit records",
		Run:   runConversations,
	}
	cmd.Flags().IntP("limit", "l", 20, "Max records")

	RootCmd.AddCommand(cmd)
}

func runConversations(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	records, err := s.ListConversations(cmd.Context(), limit)
	if err != nil {
		exitErr("conversations", err)
	}
	if len(records) == 0 {
		printJSON([]model.Conversation{})
		return
	}
	printJSON(records)
}
