package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sameehj/untappd-mcp/pkg/config"
	"github.com/sameehj/untappd-mcp/pkg/env"
	"github.com/sameehj/untappd-mcp/pkg/mcp"
	"github.com/sameehj/untappd-mcp/pkg/runtime/logging"
	"github.com/sameehj/untappd-mcp/pkg/untappd"
	"github.com/spf13/pflag"
)

var cfgFile string

func main() {
	pflag.StringVar(&cfgFile, "config", "", "config file (default: ~/.untappd-mcp/config.yaml)")
	pflag.Parse()

	_ = env.LoadFromDir(".")

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	creds, err := untappd.CredentialsFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := untappd.NewClient(creds)
	client.SetBaseURL(cfg.API.BaseURL)
	if timeout, err := cfg.APITimeout(); err == nil {
		client.SetTimeout(timeout)
	}

	server := mcp.NewServer(client)
	server.SetLogger(logging.New(cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(os.Stderr, "untappd-mcp server ready on stdio")

	done := make(chan error, 1)
	go func() { done <- server.ServeStdio(ctx) }()

	select {
	case <-ctx.Done():
		// interrupt: orderly shutdown, status 0
	case err := <-done:
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
