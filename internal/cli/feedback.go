package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "feedback [conversation-id] [positive|negative]",
		Short: "Record feedback on a conversation",
		Long:  "Feedback feeds the maturity engine's strength and weakness assessment.",
		Args:  cobra.ExactArgs(2),
		Run:   runFeedback,
	}

	RootCmd.AddCommand(cmd)
}

func runFeedback(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	if err := s.RecordFeedback(cmd.Context(), args[0], args[1]); err != nil {
		exitErr("record feedback", err)
	}
	printJSON(map[string]string{"id": args[0], "feedback": args[1]})
}
