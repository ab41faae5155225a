package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dialogroute/dialogroute/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "classify [message]",
		Short: "Classify a message's intent",
		Long:  "Run only the keyword-scoring classifier and print the intent, confidence and reasoning.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runClassify,
	}

	cmd.Flags().StringP("role", "r", "customer", "Caller role")

	RootCmd.AddCommand(cmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	role, _ := cmd.Flags().GetString("role")

	cfg := loadConfig()
	res := newClassifier(cfg).Classify(strings.Join(args, " "), model.Context{Role: role})
	printJSON(res)
}
