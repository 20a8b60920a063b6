// Package cmd implements the trustlist command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/infrahq/trustlist/internal/cmd/cliopts"
	"github.com/infrahq/trustlist/internal/config"
	"github.com/infrahq/trustlist/internal/logging"
)

const envPrefix = "TRUSTLIST"

// Run the main CLI command with the given args. The args should not contain
// the name of the binary (ex: os.Args[1:]).
func Run(ctx context.Context, args ...string) error {
	cli := newCLI(ctx)
	cmd := NewRootCmd(cli)
	cmd.SetArgs(args)
	cmd.SetOut(cli.Stdout)
	cmd.SetErr(cli.Stderr)
	return cmd.ExecuteContext(ctx)
}

type rootOptions struct {
	ConfigFile string
	LogLevel   string
}

func NewRootCmd(cli *CLI) *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:               "trustlist",
		Short:             "Cache and refresh the signer certificates of document issuers",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cliopts.DefaultsFromEnv(envPrefix, cmd.Flags()); err != nil {
				return err
			}
			return logging.Initialize(opts.LogLevel, "")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(
		newServeCmd(cli, &opts),
		newRefreshCmd(cli, &opts),
		newListCmd(cli, &opts),
		newStatusCmd(cli),
		newVersionCmd(cli))

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "f", "", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Show logs when running the command [error, warn, info, debug]")
	return rootCmd
}

// loadConfig reads the configuration file, environment variables, and the
// flags of cmd, and validates the result.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg := config.Default()
	if err := cliopts.Load(&cfg, cliopts.Options{
		Filename:  opts.ConfigFile,
		EnvPrefix: envPrefix,
		Flags:     cmd.Flags(),
	}); err != nil {
		return cfg, err
	}

	dataDir, err := canonicalPath(cfg.DataDir)
	if err != nil {
		return cfg, err
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	if len(cfg.Issuers) == 0 {
		return cfg, fmt.Errorf("no issuers configured")
	}
	return cfg, nil
}

// canonicalPath expands environment variables in path and makes it absolute.
func canonicalPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return filepath.Abs(os.ExpandEnv(path))
}
