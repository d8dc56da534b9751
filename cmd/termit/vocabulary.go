package main

import (
	"github.com/spf13/cobra"
)

var flagDependents bool

var vocabularyCmd = &cobra.Command{
	Use:   "vocabulary",
	Short: "Manage vocabularies of the current workspace",
}

func init() {
	vocabularyDepsCmd.Flags().BoolVar(&flagDependents, "dependents", false, "list vocabularies depending on the vocabulary instead")

	vocabularyCmd.AddCommand(vocabularyListCmd)
	vocabularyCmd.AddCommand(vocabularyRemoveCmd)
	vocabularyCmd.AddCommand(vocabularyDepsCmd)
	vocabularyCmd.AddCommand(vocabularyValidateCmd)
}

var vocabularyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vocabularies, the workspace's own first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "vocabulary list"
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		vocabs, err := engine.Vocabularies().FindAll(ctx)
		if err != nil {
			return outputError(command, err)
		}
		out := make([]CLIVocabulary, len(vocabs))
		for i, v := range vocabs {
			out[i] = vocabularyToCLI(v)
		}
		total := len(out)
		return outputResult(CLIResult{Command: command, Workspace: flagWorkspace, Results: out, TotalCount: &total})
	},
}

var vocabularyRemoveCmd = &cobra.Command{
	Use:   "remove <vocabulary>",
	Short: "Remove an empty vocabulary from the workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "vocabulary remove"
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		if err := engine.Vocabularies().Remove(ctx, args[0]); err != nil {
			return outputError(command, err)
		}
		return outputResult(CLIResult{Command: command, Workspace: flagWorkspace, Results: CLIMessage{Message: "removed " + args[0]}})
	},
}

var vocabularyDepsCmd = &cobra.Command{
	Use:   "deps <vocabulary>",
	Short: "List the vocabularies a vocabulary imports, transitively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "vocabulary deps"
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		var out []CLIVocabulary
		if flagDependents {
			deps, err := engine.Vocabularies().Dependents(ctx, args[0])
			if err != nil {
				return outputError(command, err)
			}
			for _, v := range deps {
				out = append(out, vocabularyToCLI(v))
			}
		} else {
			uris, err := engine.Vocabularies().TransitiveDependencies(ctx, args[0])
			if err != nil {
				return outputError(command, err)
			}
			for _, u := range uris {
				out = append(out, CLIVocabulary{URI: u})
			}
		}
		if out == nil {
			out = []CLIVocabulary{}
		}
		total := len(out)
		return outputResult(CLIResult{Command: command, Workspace: flagWorkspace, Results: out, TotalCount: &total})
	},
}

var vocabularyValidateCmd = &cobra.Command{
	Use:   "validate <vocabulary>",
	Short: "Run validation rules over a vocabulary's terms",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "vocabulary validate"
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		results, err := engine.Vocabularies().ValidateContents(ctx, args[0])
		if err != nil {
			return outputError(command, err)
		}
		out := make([]CLIValidationResult, len(results))
		for i, r := range results {
			out[i] = CLIValidationResult(r)
		}
		total := len(out)
		return outputResult(CLIResult{Command: command, Workspace: flagWorkspace, Results: out, TotalCount: &total})
	},
}
