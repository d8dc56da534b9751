package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jward/termit"
	"github.com/jward/termit/config"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagDB        string
	flagWorkspace string
	flagFormat    string
	flagLang      string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// stdout and stderr are swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "termit",
	Short:         "Workspace-scoped vocabulary and term queries",
	Long:          "Termit reads SKOS vocabularies stored in SQLite through a workspace, merging the workspace's working copies with canonical vocabularies.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (overrides repository.path)")
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "identifier of the current workspace")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLang, "lang", "", "content language (overrides persistence.language)")

	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(termsCmd)
	rootCmd.AddCommand(vocabularyCmd)
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(newLogger(config.LoggingConfig{Level: "warn", Format: "text"})).Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		cfg.Repository.Path = flagDB
	}
	if flagLang != "" {
		cfg.Persistence.Language = flagLang
	}
	return cfg, nil
}

// openEngine builds an Engine over an existing database.
func openEngine() (*termit.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.Repository.Path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s", cfg.Repository.Path)
	}
	engine, err := termit.NewFromConfig(cfg, termit.WithLogger(newLogger(cfg.Logging)))
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

// openWorkspace opens the Engine and loads the --workspace workspace. The
// returned context carries it.
func openWorkspace() (*termit.Engine, context.Context, error) {
	if flagWorkspace == "" {
		return nil, nil, fmt.Errorf("--workspace is required")
	}
	engine, err := openEngine()
	if err != nil {
		return nil, nil, err
	}
	ctx, _, err := engine.Workspaces().LoadWorkspace(context.Background(), flagWorkspace)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	return engine, ctx, nil
}

// newLogger builds a stderr logger from the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(stderr, opts))
	}
	return slog.New(slog.NewTextHandler(stderr, opts))
}

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Inspect workspaces",
}

var workspaceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current workspace and its vocabularies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "workspace show"
		engine, ctx, err := openWorkspace()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		dto, err := engine.Workspaces().CurrentWorkspace(ctx)
		if err != nil {
			return outputError(command, err)
		}
		return outputResult(CLIResult{Command: command, Workspace: flagWorkspace, Results: workspaceToCLI(dto.Workspace, dto.VocabularyURIs)})
	},
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all workspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "workspace list"
		engine, err := openEngine()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		all, err := engine.Workspaces().FindAll(context.Background())
		if err != nil {
			return outputError(command, err)
		}
		out := make([]CLIWorkspace, len(all))
		for i, ws := range all {
			out[i] = workspaceToCLI(ws, nil)
		}
		total := len(out)
		return outputResult(CLIResult{Command: command, Results: out, TotalCount: &total})
	},
}

func init() {
	workspaceCmd.AddCommand(workspaceShowCmd)
	workspaceCmd.AddCommand(workspaceListCmd)
}
