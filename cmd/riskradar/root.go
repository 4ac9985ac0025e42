package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridiancap/riskradar/internal/config"
)

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "riskradar",
		Short:         "Portfolio AI-disruption risk assessment service",
		Long:          "riskradar scores companies on their exposure to AI disruption,\ntracks them in weighted portfolios, and scans news for developments\nthat affect portfolio holdings.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file (default: environment variables only)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}

// loadConfig reads the file named by --config, or falls back to RISKRADAR_*
// environment variables when no file was given.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	if path := os.Getenv("RISKRADAR_CONFIG"); path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
