// ABOUTME: init command: interactive config file writer
// ABOUTME: Prompts for server, database, status, capture, tailscale and logging settings

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/second-brain/internal/config"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new config file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			defaultPath, _ := opts.resolveConfigPath()
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout(), defaultPath)
		},
	}
}

// initAnswers holds everything collected by runInit.
type initAnswers struct {
	HTTPAddr      string
	Driver        string
	DBPath        string
	StatusPath    string
	DefaultSource string

	TailscaleEnabled bool
	TSHostname       string
	TSAuthKey        string
	TSEphemeral      bool
	TSHTTPS          bool

	LogLevel  string
	LogFormat string
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func runInit(in io.Reader, out io.Writer, defaultConfigPath string) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "second-brain configuration setup")
	fmt.Fprintln(out, "================================")
	fmt.Fprintln(out)

	dataDir := config.DataDir()

	// Output filename
	outputFile := prompt(reader, out, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		if !isYes(prompt(reader, out, "File exists. Overwrite?", "no")) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, out, "HTTP address", "localhost:3000")

	fmt.Fprintln(out, "\n--- Database Configuration ---")
	a.Driver = prompt(reader, out, "Driver (sqlite/sqlite3/pgx)", "sqlite")
	if a.Driver == "pgx" {
		a.DBPath = prompt(reader, out, "PostgreSQL connection string", "postgres://localhost:5432/second_brain")
	} else {
		a.DBPath = prompt(reader, out, "SQLite database path", filepath.Join(dataDir, "brain.db"))
	}

	fmt.Fprintln(out, "\n--- Status and Capture ---")
	a.StatusPath = prompt(reader, out, "Status file path", filepath.Join(dataDir, "status.json"))
	a.DefaultSource = prompt(reader, out, "Default capture source", "api")

	fmt.Fprintln(out, "\n--- Tailscale Configuration ---")
	a.TailscaleEnabled = isYes(prompt(reader, out, "Enable Tailscale?", "no"))
	if a.TailscaleEnabled {
		a.TSHostname = prompt(reader, out, "Tailscale hostname", "second-brain")
		a.TSAuthKey = prompt(reader, out, "Tailscale auth key (leave empty to use TS_AUTHKEY)", "")
		a.TSEphemeral = isYes(prompt(reader, out, "Ephemeral node?", "no"))
		a.TSHTTPS = isYes(prompt(reader, out, "Serve HTTPS with tailnet certs?", "no"))
	}

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, out, "Log format (text/json)", "text")

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// The file may hold an auth key
	if err := os.WriteFile(outputFile, []byte(renderConfig(a)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintf(out, "  second-brain serve --config %s\n", outputFile)

	return nil
}

func renderConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# second-brain configuration\n")
	cfg.WriteString("# Generated by second-brain init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", a.HTTPAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  driver: %q\n", a.Driver))
	cfg.WriteString(fmt.Sprintf("  path: %q\n", a.DBPath))
	cfg.WriteString("\n")

	cfg.WriteString("status:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", a.StatusPath))
	cfg.WriteString("  watch: true\n")
	cfg.WriteString("\n")

	cfg.WriteString("capture:\n")
	cfg.WriteString(fmt.Sprintf("  default_source: %q\n", a.DefaultSource))
	cfg.WriteString("  dedupe_ttl: \"5m\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("tailscale:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", a.TailscaleEnabled))
	if a.TailscaleEnabled {
		cfg.WriteString(fmt.Sprintf("  hostname: %q\n", a.TSHostname))
		if a.TSAuthKey != "" {
			cfg.WriteString(fmt.Sprintf("  auth_key: %q\n", a.TSAuthKey))
		}
		cfg.WriteString(fmt.Sprintf("  ephemeral: %t\n", a.TSEphemeral))
		cfg.WriteString(fmt.Sprintf("  https: %t\n", a.TSHTTPS))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", a.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", a.LogFormat))

	return cfg.String()
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
