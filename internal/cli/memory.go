package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dialogroute/dialogroute/internal/model"
	"github.com/dialogroute/dialogroute/internal/store"
)

func init() {
	memoryCmd := &cobra.Command{
		Use:   "memory",
		Short: "Query and manage the knowledge memory",
	}

	queryCmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Retrieve ranked knowledge for a query",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMemoryQuery,
	}
	queryCmd.Flags().String("category", "", "Restrict to one entry type")
	queryCmd.Flags().IntP("limit", "l", 0, "Max results (default 10, 5 when scoped)")

	addCmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Reinforce-or-create a knowledge entry",
		Long:  "Store knowledge. Equivalent existing content is reinforced instead of duplicated.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMemoryAdd,
	}
	addCmd.Flags().StringP("type", "t", string(model.TypeProductKnowledge), "Entry type")
	addCmd.Flags().String("title", "", "Entry title")
	addCmd.Flags().IntP("priority", "p", 0, "Priority 1-100 (default 70)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge entries",
		Run:   runMemoryList,
	}
	listCmd.Flags().StringP("type", "t", "", "Filter by entry type")
	listCmd.Flags().BoolP("all", "a", false, "Include superseded entries")
	listCmd.Flags().IntP("limit", "l", 50, "Max results")

	memoryCmd.AddCommand(queryCmd, addCmd, listCmd)
	RootCmd.AddCommand(memoryCmd)
}

func runMemoryQuery(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	results, err := s.QueryMemory(cmd.Context(), store.QueryParams{
		Query:    strings.Join(args, " "),
		Category: model.EntryType(category),
		Limit:    limit,
	})
	if err != nil {
		exitErr("query memory", err)
	}
	if len(results) == 0 {
		printJSON([]model.MemoryEntry{})
		return
	}
	printJSON(results)
}

func runMemoryAdd(cmd *cobra.Command, args []string) {
	entryType, _ := cmd.Flags().GetString("type")
	title, _ := cmd.Flags().GetString("title")
	priority, _ := cmd.Flags().GetInt("priority")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	id, err := s.ReinforceOrCreate(cmd.Context(), store.Candidate{
		Type:     model.EntryType(entryType),
		Title:    title,
		Content:  strings.Join(args, " "),
		Priority: priority,
	})
	if err != nil {
		exitErr("memory add", err)
	}

	entry, err := s.GetEntry(cmd.Context(), id)
	if err != nil {
		exitErr("memory add", err)
	}
	printJSON(entry)
}

func runMemoryList(cmd *cobra.Command, args []string) {
	entryType, _ := cmd.Flags().GetString("type")
	all, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	defer s.Close()

	entries, err := s.ListEntries(cmd.Context(), store.ListParams{
		Type:          model.EntryType(entryType),
		IncludeClosed: all,
		Limit:         limit,
	})
	if err != nil {
		exitErr("memory list", err)
	}
	if len(entries) == 0 {
		printJSON([]model.MemoryEntry{})
		return
	}
	printJSON(entries)
}
