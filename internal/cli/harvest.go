package cli

import (
	"github.com/spf13/cobra"

	"github.com/dialogroute/dialogroute/internal/training"
)

func init() {
	cmd := &cobra.Command{
		Use:   "harvest [topics...]",
		Short: "Harvest candidate knowledge offline",
		Long: "Prompt a local Ollama model for factual statements per topic and store\n" +
			"them as generated entries. Offline only; never part of routing.",
		Args: cobra.MinimumNArgs(1),
		Run:  runHarvest,
	}
	cmd.Flags().StringP("model", "m", "", "Ollama model (default from config)")

	RootCmd.AddCommand(cmd)
}

func runHarvest(cmd *cobra.Command, args []string) {
	modelFlag, _ := cmd.Flags().GetString("model")

	cfg := loadConfig()
	if modelFlag != "" {
		cfg.Ollama.Model = modelFlag
	}
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	gen := training.NewOllamaGenerator(cfg.Ollama.Model)
	n, err := training.NewHarvester(gen, s, logger).Harvest(cmd.Context(), args)
	if err != nil {
		exitErr("harvest", err)
	}
	printJSON(map[string]int{"stored": n})
}
