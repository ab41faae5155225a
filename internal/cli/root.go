// Package cli implements the dialogroute CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dialogroute/dialogroute/internal/classifier"
	"github.com/dialogroute/dialogroute/internal/config"
	"github.com/dialogroute/dialogroute/internal/engine"
	"github.com/dialogroute/dialogroute/internal/model"
	"github.com/dialogroute/dialogroute/internal/store"
)

var (
	cfgPath string
	dbFlag  string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "dialogroute",
	Short: "Domain-restricted dialogue routing with self-reinforcing memory",
	Long: "dialogroute classifies message intent, retrieves ranked prior knowledge,\n" +
		"dispatches to intent handlers, and learns from corrections. SQLite-backed,\n" +
		"single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default: $DIALOGROUTE_CONFIG)")
	RootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", "", "Database path (default: $DIALOGROUTE_DB or ~/.dialogroute/engine.db)")
}

func loadConfig() config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbFlag != "" {
		cfg.DBPath = dbFlag
	}
	return cfg
}

func newLogger(cfg config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.LogLevel == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openStore(cfg config.Config, logger *zap.Logger) *store.SQLiteStore {
	s, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

// newClassifier applies any configured keyword overrides on top of the
// default taxonomy. Overrides replace the keyword list for a known intent;
// unknown intents are rejected.
func newClassifier(cfg config.Config) *classifier.Classifier {
	cats := classifier.DefaultCategories()
	for _, override := range cfg.Categories {
		found := false
		for i := range cats {
			if cats[i].Intent == model.Intent(override.Intent) {
				cats[i].Keywords = override.Keywords
				found = true
				break
			}
		}
		if !found {
			exitErr("config", fmt.Errorf("unknown intent %q in categories", override.Intent))
		}
	}
	return classifier.New(cats, cfg.OutOfScope, cfg.BrandTokens)
}

func newEngine(cfg config.Config, s *store.SQLiteStore, logger *zap.Logger) *engine.Engine {
	return engine.New(engine.Options{
		Classifier: newClassifier(cfg),
		Storage:    s,
		Persona: engine.Persona{
			Name:    cfg.Persona.Name,
			Company: cfg.Persona.Company,
			Tone:    cfg.Persona.Tone,
		},
		AdminRoles: cfg.AdminRoles,
		IOTimeout:  cfg.IOTimeout.Std(),
		Logger:     logger,
	})
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
