// ABOUTME: Client subcommands that talk to a running server over HTTP
// ABOUTME: health, status get/set and capture; the base URL comes from --server or the config

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389/second-brain/internal/capture"
	"github.com/2389/second-brain/internal/config"
	"github.com/2389/second-brain/internal/server"
	"github.com/2389/second-brain/internal/status"
)

const clientTimeout = 10 * time.Second

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: clientTimeout},
	}
}

// baseURLFor derives the server URL from the config.
func baseURLFor(cfg *config.Config) string {
	if cfg.Tailscale.Enabled {
		if cfg.Tailscale.HTTPS {
			return "https://" + cfg.Tailscale.Hostname
		}
		return "http://" + cfg.Tailscale.Hostname
	}
	return "http://" + cfg.Server.HTTPAddr
}

// client builds an apiClient from --server, falling back to the config.
func (o *rootOptions) client() (*apiClient, error) {
	if o.serverURL != "" {
		return newAPIClient(o.serverURL), nil
	}
	cfg, _, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return newAPIClient(baseURLFor(cfg)), nil
}

// do sends a request and decodes a JSON response into out when out is non-nil.
// Non-2xx responses become errors carrying the server's error message.
func (c *apiClient) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *apiClient) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show or change the working/idle status",
	}
	cmd.AddCommand(newStatusGetCmd(opts), newStatusSetCmd(opts))
	return cmd
}

func newStatusGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			var st status.Status
			if err := c.do(cmd.Context(), http.MethodGet, "/status", nil, nil, &st); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), &st)
			return nil
		},
	}
}

func newStatusSetCmd(opts *rootOptions) *cobra.Command {
	var task string

	cmd := &cobra.Command{
		Use:       "set <working|idle>",
		Short:     "Replace the current status",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(status.Working), string(status.Idle)},
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := status.ParseState(args[0])
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}

			req := server.StatusRequest{Status: string(state)}
			if cmd.Flags().Changed("task") {
				req.CurrentTask = &task
			}

			var resp server.StatusResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/status", req, nil, &resp); err != nil {
				return err
			}
			if resp.Status == nil {
				return errors.New("server returned an empty status")
			}
			printStatus(cmd.OutOrStdout(), resp.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&task, "task", "", "description of the current task")
	return cmd
}

func printStatus(w io.Writer, st *status.Status) {
	fmt.Fprintf(w, "status: %s\n", st.Status)
	if st.CurrentTask != nil && *st.CurrentTask != "" {
		fmt.Fprintf(w, "task: %s\n", *st.CurrentTask)
	}
	if st.LastUpdated != nil {
		fmt.Fprintf(w, "updated: %s\n", st.LastUpdated.Local().Format(time.RFC3339))
	}
}

func newCaptureCmd(opts *rootOptions) *cobra.Command {
	var (
		req            capture.Request
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "capture <text>",
		Short: "Quickly capture a thought as a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Text = strings.Join(args, " ")

			c, err := opts.client()
			if err != nil {
				return err
			}

			var headers map[string]string
			if idempotencyKey != "" {
				headers = map[string]string{server.IdempotencyKeyHeader: idempotencyKey}
			}

			var res capture.Result
			if err := c.do(cmd.Context(), http.MethodPost, "/capture", req, headers, &res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s)\n", res.Message, res.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Type, "type", "", "capture type (default note)")
	cmd.Flags().StringVar(&req.Source, "source", "", "capture source (default from server config)")
	cmd.Flags().StringVar(&req.Title, "title", "", "title for the captured note")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "key that makes retries return the first result")
	return cmd
}
