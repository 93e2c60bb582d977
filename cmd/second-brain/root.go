// ABOUTME: Root cobra command and config resolution shared by every subcommand
// ABOUTME: --config beats SECOND_BRAIN_CONFIG beats the XDG default path

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389/second-brain/internal/config"
)

type rootOptions struct {
	configPath string
	serverURL  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "second-brain",
		Short: "Personal store for tasks, notes, conversations and credentials",
		Long: `second-brain keeps tasks, notes, conversation logs and service credentials
in one database and serves them over a small HTTP/JSON API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/second-brain/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", "", "server base URL for client commands (default derived from config)")

	cmd.AddCommand(
		newServeCmd(opts),
		newInitCmd(opts),
		newHealthCmd(opts),
		newStatusCmd(opts),
		newCaptureCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// resolveConfigPath returns the config path and whether it was chosen
// explicitly (flag or environment) rather than defaulted.
func (o *rootOptions) resolveConfigPath() (string, bool) {
	if o.configPath != "" {
		return o.configPath, true
	}
	return config.DefaultPath()
}

// loadConfig reads the config file. A missing file at the default path
// yields the built-in defaults; a missing explicit file is an error.
func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	path, explicit := o.resolveConfigPath()

	var (
		cfg *config.Config
		err error
	)
	if explicit {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "second-brain version %s\n", version)
		},
	}
}
