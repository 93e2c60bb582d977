// ABOUTME: Entry point for the second-brain server and CLI
// ABOUTME: Wires cobra commands to a signal-aware context

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const banner = `
                                   _       _               _
  ___  ___  ___ ___  _ __   __| |     | |__  _ __ __ _(_)_ __
 / __|/ _ \/ __/ _ \| '_ \ / _' |_____| '_ \| '__/ _' | | '_ \
 \__ \  __/ (_| (_) | | | | (_| |_____| |_) | | | (_| | | | | |
 |___/\___|\___\___/|_| |_|\__,_|     |_.__/|_|  \__,_|_|_| |_|
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
