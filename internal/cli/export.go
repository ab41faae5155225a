package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dialogroute/dialogroute/internal/model"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export all knowledge entries as JSON",
		Long:  "Writes every entry, including superseded ones, to stdout.",
		Run:   runExport,
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import knowledge entries from a JSON export",
		Long: "Reads an export from a file or stdin. Active entries go through\n" +
			"reinforce-or-create; superseded entries stay retired.",
		Args: cobra.MaximumNArgs(1),
		Run:  runImport,
	}

	RootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	entries, err := s.ExportEntries(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	if len(entries) == 0 {
		printJSON([]model.MemoryEntry{})
		return
	}
	printJSON(entries)
}

func runImport(cmd *cobra.Command, args []string) {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read import", err)
	}

	var entries []model.MemoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		exitErr("parse import", err)
	}

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	n, err := s.ImportEntries(cmd.Context(), entries)
	if err != nil {
		exitErr("import", fmt.Errorf("after %d entries: %w", n, err))
	}
	printJSON(map[string]int{"imported": n})
}
