// ABOUTME: Tailnet listener setup using an embedded tsnet node
// ABOUTME: Serves HTTP on :80, HTTPS on :443 with tailnet certs, or HTTPS published through Funnel

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/second-brain/internal/config"
)

// errNoAuthKey is returned when neither the config nor TS_AUTHKEY holds a key.
var errNoAuthKey = errors.New("tailscale auth key required: set tailscale.auth_key or TS_AUTHKEY (keys: https://login.tailscale.com/admin/settings/keys)")

// tailnetMode is how the API is exposed on the tailnet.
type tailnetMode int

const (
	tailnetHTTP   tailnetMode = iota // plain HTTP, tailnet only
	tailnetHTTPS                     // TLS with a tailnet certificate
	tailnetFunnel                    // TLS, also reachable from the internet
)

func tailnetModeFor(cfg config.TailscaleConfig) tailnetMode {
	switch {
	case cfg.Funnel:
		return tailnetFunnel
	case cfg.HTTPS:
		return tailnetHTTPS
	}
	return tailnetHTTP
}

func (m tailnetMode) addr() string {
	if m == tailnetHTTP {
		return ":80"
	}
	return ":443"
}

func (m tailnetMode) String() string {
	switch m {
	case tailnetHTTPS:
		return "https"
	case tailnetFunnel:
		return "funnel"
	}
	return "http"
}

// resolveTailscaleStateDir returns the node state directory, defaulting to
// <data dir>/tailscale.
func resolveTailscaleStateDir(configured string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(config.DataDir(), "tailscale")
}

// resolveTailscaleAuthKey prefers the configured key over TS_AUTHKEY.
func resolveTailscaleAuthKey(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if env := os.Getenv("TS_AUTHKEY"); env != "" {
		return env, nil
	}
	return "", errNoAuthKey
}

// newTailnetNode builds an unstarted tsnet node from config, creating its
// state directory.
func newTailnetNode(cfg config.TailscaleConfig) (*tsnet.Server, error) {
	authKey, err := resolveTailscaleAuthKey(cfg.AuthKey)
	if err != nil {
		return nil, err
	}

	stateDir := resolveTailscaleStateDir(cfg.StateDir)
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	return &tsnet.Server{
		Hostname:  cfg.Hostname,
		Dir:       stateDir,
		Ephemeral: cfg.Ephemeral,
		AuthKey:   authKey,
	}, nil
}

// setupTailscaleListener brings the tsnet node up and listens according to
// the configured mode. On failure Run closes the node.
func (s *Server) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := s.config.Tailscale

	node, err := newTailnetNode(tsCfg)
	if err != nil {
		return nil, err
	}
	s.tsnetServer = node

	mode := tailnetModeFor(tsCfg)
	s.logger.Info("starting tailscale node",
		"hostname", tsCfg.Hostname,
		"state_dir", node.Dir,
		"ephemeral", tsCfg.Ephemeral,
		"mode", mode,
	)

	st, err := node.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	s.logTailscaleStatus(st, mode)

	var ln net.Listener
	switch mode {
	case tailnetFunnel:
		ln, err = node.ListenFunnel("tcp", mode.addr())
	case tailnetHTTPS:
		ln, err = node.ListenTLS("tcp", mode.addr())
	default:
		ln, err = node.Listen("tcp", mode.addr())
	}
	if err != nil {
		return nil, fmt.Errorf("listening on tailnet %s %s: %w", mode, mode.addr(), err)
	}
	return ln, nil
}

func (s *Server) logTailscaleStatus(st *ipnstate.Status, mode tailnetMode) {
	attrs := []any{"hostname", s.config.Tailscale.Hostname, "mode", mode}
	if len(st.TailscaleIPs) > 0 {
		attrs = append(attrs, "tailscale_ip", st.TailscaleIPs[0].String())
	} else {
		s.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if st.Self != nil && st.Self.DNSName != "" {
		scheme := "http"
		if mode != tailnetHTTP {
			scheme = "https"
		}
		attrs = append(attrs, "url", scheme+"://"+trimDot(st.Self.DNSName))
	}
	s.logger.Info("tailscale node ready", attrs...)
}

// trimDot drops the trailing dot of a fully qualified DNS name.
func trimDot(name string) string {
	if n := len(name); n > 0 && name[n-1] == '.' {
		return name[:n-1]
	}
	return name
}
