// ABOUTME: Tests for the HTTP client subcommands against an httptest server
// ABOUTME: Commands are run through the root command with --server pointing at the fake

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/second-brain/internal/capture"
	"github.com/2389/second-brain/internal/config"
	"github.com/2389/second-brain/internal/server"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHealthCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--server", srv.URL, "health")
	require.NoError(t, err)
	assert.Equal(t, "healthy\n", out)
}

func TestHealthCmd_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := runCLI(t, "--server", srv.URL, "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unhealthy: status 503")
}

func TestStatusGetCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"working","lastUpdated":"2024-05-01T12:00:00Z","currentTask":"indexing"}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--server", srv.URL, "status", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "status: working\n")
	assert.Contains(t, out, "task: indexing\n")
	assert.Contains(t, out, "updated: ")
}

func TestStatusSetCmd(t *testing.T) {
	var got server.StatusRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"working","lastUpdated":"2024-05-01T12:00:00Z","currentTask":"sync","message":"Status updated successfully"}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--server", srv.URL, "status", "set", "working", "--task", "sync")
	require.NoError(t, err)
	assert.Equal(t, "working", got.Status)
	require.NotNil(t, got.CurrentTask)
	assert.Equal(t, "sync", *got.CurrentTask)
	assert.Contains(t, out, "status: working\n")
	assert.Contains(t, out, "task: sync\n")
}

func TestStatusSetCmd_WithoutTask(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"status":"idle","lastUpdated":null,"message":"Status updated successfully"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "--server", srv.URL, "status", "set", "idle")
	require.NoError(t, err)
	assert.Equal(t, "idle", raw["status"])
	assert.Nil(t, raw["currentTask"])
}

func TestStatusSetCmd_RejectsUnknownState(t *testing.T) {
	_, err := runCLI(t, "--server", "http://127.0.0.1:0", "status", "set", "sleeping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status must be working or idle")
}

func TestCaptureCmd(t *testing.T) {
	var (
		got capture.Request
		key string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/capture", r.URL.Path)
		key = r.Header.Get(server.IdempotencyKeyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"id":"n-1","type":"idea","message":"Captured idea successfully"}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--server", srv.URL, "capture", "buy", "more", "coffee",
		"--type", "idea", "--source", "cli", "--idempotency-key", "k-1")
	require.NoError(t, err)
	assert.Equal(t, "buy more coffee", got.Text)
	assert.Equal(t, "idea", got.Type)
	assert.Equal(t, "cli", got.Source)
	assert.Empty(t, got.Title)
	assert.Equal(t, "k-1", key)
	assert.Equal(t, "Captured idea successfully (id n-1)\n", out)
}

func TestCaptureCmd_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"capture already in progress"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "--server", srv.URL, "capture", "hello")
	require.Error(t, err)
	assert.Equal(t, "server returned 409: capture already in progress", err.Error())
}

func TestBaseURLFor(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.HTTPAddr = "localhost:3000"
	assert.Equal(t, "http://localhost:3000", baseURLFor(cfg))

	cfg.Tailscale.Enabled = true
	cfg.Tailscale.Hostname = "brain"
	assert.Equal(t, "http://brain", baseURLFor(cfg))

	cfg.Tailscale.HTTPS = true
	assert.Equal(t, "https://brain", baseURLFor(cfg))
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "second-brain version dev\n", out)
}
