package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sameehj/untappd-mcp/pkg/catalog"
	"github.com/sameehj/untappd-mcp/pkg/config"
	"github.com/sameehj/untappd-mcp/pkg/env"
	"github.com/sameehj/untappd-mcp/pkg/gateway"
	"github.com/sameehj/untappd-mcp/pkg/mcp"
	"github.com/sameehj/untappd-mcp/pkg/runtime/logging"
	"github.com/sameehj/untappd-mcp/pkg/untappd"
	"github.com/sameehj/untappd-mcp/pkg/version"
	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "untappd",
		Short: "Untappd MCP adapter",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.untappd-mcp/config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(gatewayCmd())
	root.AddCommand(httpCmd())
	root.AddCommand(toolsCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildServer() (*mcp.Server, *config.Config, error) {
	_ = env.LoadFromDir(".")

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	creds, err := untappd.CredentialsFromEnv()
	if err != nil {
		return nil, nil, err
	}

	client := untappd.NewClient(creds)
	client.SetBaseURL(cfg.API.BaseURL)
	if timeout, err := cfg.APITimeout(); err == nil {
		client.SetTimeout(timeout)
	}

	server := mcp.NewServer(client)
	server.SetLogger(logging.New(cfg.LogLevel, cfg.LogFormat))
	return server, cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _, err := buildServer()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(os.Stderr, "untappd-mcp server ready on stdio")

			done := make(chan error, 1)
			go func() { done <- server.ServeStdio(ctx) }()

			select {
			case <-ctx.Done():
				return nil
			case err := <-done:
				return err
			}
		},
	}
}

func gatewayCmd() *cobra.Command {
	var addr string
	var maxSessions int

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve MCP over TCP",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, cfg, err := buildServer()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Gateway.Address
			}
			if maxSessions == 0 {
				maxSessions = cfg.Gateway.MaxSessions
			}

			gw := gateway.NewServer(addr, server, gateway.AllowlistAuthorizer{Allowed: cfg.Gateway.AllowedAddrs})
			if maxSessions > 0 {
				gw.SetMaxSessions(maxSessions)
			}
			gw.SetLogger(logging.New(cfg.LogLevel, cfg.LogFormat))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- gw.Start(ctx) }()

			fmt.Fprintf(os.Stderr, "untappd-mcp gateway listening on %s\n", addr)
			select {
			case <-signalChan():
				cancel()
				return nil
			case err := <-done:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "gateway listen address")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "maximum concurrent sessions (0 = unlimited)")
	return cmd
}

func httpCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve MCP over HTTP with SSE",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, cfg, err := buildServer()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.HTTP.Address
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- mcp.ServeHTTP(ctx, server, addr) }()

			fmt.Fprintf(os.Stderr, "untappd-mcp http transport listening on %s\n", addr)
			select {
			case <-signalChan():
				cancel()
				return <-done
			case err := <-done:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "http listen address")
	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the advertised tool catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range catalog.Descriptors() {
				fmt.Printf("%s\t%s\n", d.Name, d.Description)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}
}

func signalChan() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
