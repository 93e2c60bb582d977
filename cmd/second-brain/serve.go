// ABOUTME: serve command: prints the startup banner and runs the HTTP server
// ABOUTME: Blocks until SIGINT/SIGTERM, then shuts down gracefully

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/second-brain/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	out := cmd.OutOrStdout()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Fprint(out, banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Fprintf(out, "    version: %s\n\n", version)

	// Load configuration
	cfg, configPath, err := opts.loadConfig()
	if err != nil {
		return err
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)

	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Config:    %s\n", configPath)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Database:  %s (%s)\n", cfg.Database.Path, cfg.Database.Driver)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Status:    %s\n", cfg.Status.Path)

	if cfg.Tailscale.Enabled {
		green.Fprint(out, "    ▶ ")
		fmt.Fprint(out, "Tailscale: ")
		cyan.Fprint(out, cfg.Tailscale.Hostname)
		if cfg.Tailscale.HTTPS {
			color.New(color.FgYellow).Fprint(out, " [https]")
		}
		if cfg.Tailscale.Funnel {
			color.New(color.FgYellow).Fprint(out, " [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Fprint(out, " (ephemeral)")
		}
		fmt.Fprintln(out)
	} else {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "HTTP:      %s\n", cfg.Server.HTTPAddr)
	}

	fmt.Fprintln(out)

	logger.Info("starting second-brain",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"driver", cfg.Database.Driver,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(cmd.Context())
}
