package main

import (
	"fmt"

	"github.com/jward/termit"
	"github.com/spf13/cobra"
)

var (
	flagPage       int
	flagSize       int
	flagVocabulary string
	flagExclude    string
)

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "Query terms visible in the current workspace",
	Long:  "Query terms of the current workspace's vocabularies merged with canonical vocabularies. Workspace terms are listed first.",
}

func init() {
	termsCmd.PersistentFlags().IntVar(&flagPage, "page", 0, "zero-based page number")
	termsCmd.PersistentFlags().IntVar(&flagSize, "size", 50, "page size (max 500, 0 = unpaged)")
	termsCmd.PersistentFlags().StringVar(&flagVocabulary, "vocabulary", "", "restrict to terms of this vocabulary")

	termsRootsCmd.Flags().StringVar(&flagExclude, "exclude", "", "leave out terms of this vocabulary")

	termsCmd.AddCommand(termsRootsCmd)
	termsCmd.AddCommand(termsListCmd)
	termsCmd.AddCommand(termsSearchCmd)
	termsCmd.AddCommand(termsSubtermsCmd)
	termsCmd.AddCommand(termsGetCmd)
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() (termit.Pagination, error) {
	if flagPage < 0 {
		return termit.Pagination{}, fmt.Errorf("invalid page %d: must be non-negative", flagPage)
	}
	if flagSize < 0 {
		return termit.Pagination{}, fmt.Errorf("invalid size %d: must be non-negative", flagSize)
	}
	return termit.Pagination{Page: flagPage, Size: flagSize}, nil
}

var termsRootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "List root terms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "terms roots"
		page, err := buildPagination()
		if err != nil {
			return outputError(command, err)
		}
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		var res *termit.PagedResult[termit.TermSummary]
		if flagVocabulary != "" {
			res, err = engine.Terms().FindAllRootsInVocabulary(ctx, flagVocabulary, page)
		} else {
			res, err = engine.Terms().FindAllRoots(ctx, page, flagExclude)
		}
		if err != nil {
			return outputError(command, err)
		}
		return outputPaged(command, res)
	},
}

var termsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List terms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "terms list"
		page, err := buildPagination()
		if err != nil {
			return outputError(command, err)
		}
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		var res *termit.PagedResult[termit.TermSummary]
		if flagVocabulary != "" {
			res, err = engine.Terms().FindAllInVocabulary(ctx, flagVocabulary, page)
		} else {
			res, err = engine.Terms().FindAllPaged(ctx, page)
		}
		if err != nil {
			return outputError(command, err)
		}
		return outputPaged(command, res)
	},
}

var termsSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search terms by label, ignoring case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "terms search"
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		var items []termit.TermSummary
		if flagVocabulary != "" {
			items, err = engine.Terms().SearchInVocabulary(ctx, args[0], flagVocabulary, flagLang)
		} else {
			items, err = engine.Terms().Search(ctx, args[0], flagLang)
		}
		if err != nil {
			return outputError(command, err)
		}
		out := summariesToCLI(items)
		total := len(out)
		return outputResult(CLIResult{Command: command, Workspace: flagWorkspace, Results: out, TotalCount: &total})
	},
}

var termsSubtermsCmd = &cobra.Command{
	Use:   "subterms <term>",
	Short: "List the sub-terms of a term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "terms subterms"
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		infos, err := engine.Terms().SubTerms(ctx, args[0])
		if err != nil {
			return outputError(command, err)
		}
		out := infosToCLI(infos, engine.Language())
		total := len(out)
		return outputResult(CLIResult{Command: command, Workspace: flagWorkspace, Results: out, TotalCount: &total})
	},
}

var termsGetCmd = &cobra.Command{
	Use:   "get <term>",
	Short: "Show a term with its relations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "terms get"
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		t, err := engine.Terms().Find(ctx, args[0])
		if err != nil {
			return outputError(command, err)
		}
		if t == nil {
			return outputError(command, fmt.Errorf("term not found: %s", args[0]))
		}
		return outputResult(CLIResult{Command: command, Workspace: flagWorkspace, Results: termToCLI(t, engine.Language())})
	},
}

func outputPaged(command string, res *termit.PagedResult[termit.TermSummary]) error {
	total := res.TotalCount
	return outputResult(CLIResult{
		Command:    command,
		Workspace:  flagWorkspace,
		Results:    summariesToCLI(res.Items),
		TotalCount: &total,
	})
}
