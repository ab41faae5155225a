package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dialogroute/dialogroute/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "route [message]",
		Short: "Route a message through the full pipeline",
		Long:  "Classify the message, retrieve prior knowledge, dispatch to the intent handler and blend confidence.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRoute,
	}

	cmd.Flags().StringP("role", "r", "customer", "Caller role")
	cmd.Flags().String("user", "", "Caller id")
	cmd.Flags().StringSlice("history", nil, "Prior conversation lines")

	RootCmd.AddCommand(cmd)
}

func runRoute(cmd *cobra.Command, args []string) {
	role, _ := cmd.Flags().GetString("role")
	user, _ := cmd.Flags().GetString("user")
	history, _ := cmd.Flags().GetStringSlice("history")
	message := strings.Join(args, " ")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()

	s := openStore(cfg, logger)
	defer s.Close()

	e := newEngine(cfg, s, logger)
	result := e.Route(cmd.Context(), message, model.Context{
		Role:    role,
		UserID:  user,
		History: history,
	})
	e.Drain()

	printJSON(result)
}
