package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dialogroute/dialogroute/internal/model"
	"github.com/dialogroute/dialogroute/internal/training"
)

func init() {
	learnCmd := &cobra.Command{
		Use:   "learn",
		Short: "Supervised training: corrections, rules and patterns",
	}

	correctCmd := &cobra.Command{
		Use:   "correct",
		Short: "Apply an admin correction",
		Long: "Record a correction and store the corrected response as admin knowledge.\n" +
			"High and critical priority also supersede conflicting entries.",
		Run: runLearnCorrect,
	}
	correctCmd.Flags().String("original", "", "The wrong response being corrected")
	correctCmd.Flags().String("corrected", "", "The correct response (required)")
	correctCmd.Flags().String("admin", "", "Admin id (required)")
	correctCmd.Flags().StringP("priority", "p", "medium", "Priority: low, medium, high, critical")
	correctCmd.Flags().String("reason", "", "Why the original was wrong")
	correctCmd.Flags().String("conversation", "", "Conversation id the correction refers to")
	correctCmd.MarkFlagRequired("corrected")
	correctCmd.MarkFlagRequired("admin")

	ruleCmd := &cobra.Command{
		Use:   "rule [content]",
		Short: "Teach a rule proactively",
		Args:  cobra.MinimumNArgs(1),
		Run:   runLearnRule,
	}
	ruleCmd.Flags().String("title", "", "Rule title")
	ruleCmd.Flags().StringP("category", "t", "", "Entry type (default rule)")

	patternCmd := &cobra.Command{
		Use:   "pattern [content]",
		Short: "Save a reusable conversation pattern",
		Args:  cobra.MinimumNArgs(1),
		Run:   runLearnPattern,
	}
	patternCmd.Flags().String("title", "", "Pattern title")

	learnCmd.AddCommand(correctCmd, ruleCmd, patternCmd)
	RootCmd.AddCommand(learnCmd)
}

func runLearnCorrect(cmd *cobra.Command, args []string) {
	original, _ := cmd.Flags().GetString("original")
	corrected, _ := cmd.Flags().GetString("corrected")
	admin, _ := cmd.Flags().GetString("admin")
	priority, _ := cmd.Flags().GetString("priority")
	reason, _ := cmd.Flags().GetString("reason")
	conversation, _ := cmd.Flags().GetString("conversation")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	trainer := training.NewTrainer(s, logger)
	id, err := trainer.ApplyCorrection(cmd.Context(), model.Correction{
		ConversationRef:   conversation,
		OriginalResponse:  original,
		CorrectedResponse: corrected,
		AdminID:           admin,
		Reason:            reason,
		Priority:          model.CorrectionPriority(priority),
	})
	if err != nil {
		exitErr("apply correction", err)
	}
	printJSON(map[string]string{"id": id, "status": "applied"})
}

func runLearnRule(cmd *cobra.Command, args []string) {
	title, _ := cmd.Flags().GetString("title")
	category, _ := cmd.Flags().GetString("category")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	trainer := training.NewTrainer(s, logger)
	id, err := trainer.InsertRule(cmd.Context(), training.Rule{
		Title:    title,
		Content:  strings.Join(args, " "),
		Category: model.EntryType(category),
	})
	if err != nil {
		exitErr("insert rule", err)
	}
	printJSON(map[string]string{"id": id})
}

func runLearnPattern(cmd *cobra.Command, args []string) {
	title, _ := cmd.Flags().GetString("title")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	trainer := training.NewTrainer(s, logger)
	id, err := trainer.SavePattern(cmd.Context(), title, strings.Join(args, " "))
	if err != nil {
		exitErr("save pattern", err)
	}
	printJSON(map[string]string{"id": id})
}
