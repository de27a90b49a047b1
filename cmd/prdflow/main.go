// Package main is the entry point for the prdflow CLI.
//
// The default command starts the MCP server on stdin/stdout. Supporting
// commands manage the template library (sync) and the credential store
// (auth). Startup sequence for serve:
//
// 1. Initialize logging (stderr in production, file when DEBUG is set)
// 2. Load configuration, running first-time setup if none exists
// 3. Seed the storage directory with the default workflow templates
// 4. Build the tool registry and start the request loop
// 5. Shut down on EOF, SIGINT, or SIGTERM
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"prdflow/internal/config"
	"prdflow/internal/library"
	"prdflow/internal/logging"
	"prdflow/internal/mcp"
	"prdflow/internal/templates"
	"prdflow/internal/tools"
	"prdflow/pkg/fileops"
)

// version is set via -ldflags at release time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prdflow",
		Short: "MCP server for the PRD-to-tasks development workflow",
		Long: "prdflow is an MCP server exposing tools that guide a coding agent\n" +
			"through writing a PRD, expanding it into a task list, and working\n" +
			"the list one task at a time.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(newServeCmd(), newSyncCmd(), newAuthCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	logger := logging.NewAppLogger()

	cfg, err := loadOrInitConfig(logger)
	if err != nil {
		logger.Error("configuration unavailable", "error", err)
		return err
	}

	store := templates.NewStore(cfg.StorageDir, logger)

	// Hot-reload is best effort; a failed watch only means template edits
	// need a restart to show up.
	if stop, err := templates.Watch(store, logger); err != nil {
		logger.Warn("template directory watch unavailable", "error", err)
	} else {
		defer stop()
	}

	registry := tools.NewRegistry()

	appendTool := tools.NewAppendTool(cfg.ReferenceDocPath(), fileops.OSAccessor{}, logger)
	if err := registry.Register(appendTool.Descriptor()); err != nil {
		return fmt.Errorf("registering append tool: %w", err)
	}
	if err := tools.RegisterWorkflowTools(registry, store, logger); err != nil {
		return fmt.Errorf("registering workflow tools: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server := mcp.NewServer(registry, logger, os.Stdin, os.Stdout)
	return server.Run(ctx)
}

// loadOrInitConfig loads the configuration, creating it in the default
// storage directory on first run and seeding the default templates.
func loadOrInitConfig(logger *logging.AppLogger) (*config.Config, error) {
	if config.IsFirstRun() {
		logger.Info("first run, creating configuration", "storage_dir", config.GetDefaultStorageDir())
		cfg, err := config.CreateNewConfig(config.GetDefaultStorageDir())
		if err != nil {
			return nil, err
		}
		if err := templates.Seed(cfg.StorageDir, logger); err != nil {
			return nil, fmt.Errorf("seeding default templates: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Re-seeding is cheap and restores templates a user deleted by accident.
	if err := templates.Seed(cfg.StorageDir, logger); err != nil {
		logger.Warn("could not seed default templates", "error", err)
	}
	return cfg, nil
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the configured template library and install its templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()

			cfg, err := loadOrInitConfig(logger)
			if err != nil {
				return err
			}

			var remoteURL string
			var branch *string
			if cfg.Library != nil {
				remoteURL = cfg.Library.RemoteURL
				branch = cfg.Library.Branch
			}

			result := library.Sync(remoteURL, branch, cfg.StorageDir, logger)
			fmt.Fprintln(cmd.OutOrStdout(), result.Message())

			if result.Status == library.SyncStatusFailed {
				return result.Err
			}
			return nil
		},
	}
}

func newAuthCmd() *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage the GitHub token used for private template libraries",
	}

	setToken := &cobra.Command{
		Use:   "set-token <token>",
		Short: "Store a GitHub Personal Access Token in the OS credential store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(args[0])
			if err := library.NewCredentialManager().StoreToken(token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored.")
			return nil
		},
	}

	clearToken := &cobra.Command{
		Use:   "clear-token",
		Short: "Remove the stored GitHub Personal Access Token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := library.NewCredentialManager().DeleteToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
			return nil
		},
	}

	auth.AddCommand(setToken, clearToken)
	return auth
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the prdflow version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "prdflow %s\n", version)
		},
	}
}
