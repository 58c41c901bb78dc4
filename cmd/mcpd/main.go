package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/loopwork-ai/mcpd/internal"
	"github.com/loopwork-ai/mcpd/internal/config"
	"github.com/loopwork-ai/mcpd/mcp"
	"github.com/loopwork-ai/mcpd/tools"
)

var rootCmd = &cobra.Command{
	Use:   "mcpd",
	Short: "A minimal MCP server over HTTP",
	Long: `mcpd serves a small registry of callable tools to MCP clients over HTTP.
It speaks JSON-RPC 2.0 on POST /mcp behind a bearer-token auth gate with an
optional origin allow-list, and publishes OAuth protected-resource metadata
under /.well-known/oauth-protected-resource.

Configuration comes from an optional YAML file and MCP_* environment
variables; MCP_AUTH_TOKEN is required for the server to accept requests and
may be a 1Password secret reference (op://vault/item/field).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg.ApplyEnv(os.LookupEnv)
		if addr != "" {
			cfg.Addr = addr
		}

		token, isSecret, err := internal.ResolveSecretReference(ctx, cfg.AuthToken)
		if err != nil {
			return fmt.Errorf("error resolving auth token: %w", err)
		}
		if isSecret {
			logger.Info("resolved auth token from secret reference")
		}
		cfg.AuthToken = token
		if cfg.AuthToken == "" {
			logger.Warn("no auth token configured; all /mcp requests will be rejected")
		}

		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = retries
		retryClient.RetryWaitMin = 1 * time.Second
		retryClient.RetryWaitMax = 30 * time.Second
		retryClient.HTTPClient.Timeout = timeout
		retryClient.Logger = nil
		retryClient.HTTPClient.Transport = &internal.HeaderTransport{
			Headers: http.Header{"User-Agent": []string{"mcpd/" + version}},
		}
		client := retryClient.StandardClient()

		server, err := mcp.NewServer(
			mcp.WithLogger(logger),
			mcp.WithServerInfo("mcpd", version),
			mcp.WithTool(tools.DateTime()),
			mcp.WithTool(tools.Wikipedia(tools.WithHTTPClient(client))),
		)
		if err != nil {
			return fmt.Errorf("error creating server: %w", err)
		}

		transport := mcp.NewHTTPTransport(server,
			mcp.WithBearerToken(cfg.AuthToken),
			mcp.WithRequiredScope(cfg.RequiredScope),
			mcp.WithAllowedOrigins(cfg.AllowedOrigins),
			mcp.WithAuthorizationServers(cfg.AuthorizationServers),
			mcp.WithResourceDocumentation(cfg.ResourceDocumentation),
			mcp.WithPublicURL(cfg.PublicURL),
			mcp.WithTransportLogger(logger),
		)

		mux := http.NewServeMux()
		transport.RegisterRoutes(mux)

		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logger.Info("listening", "addr", cfg.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

var (
	addr       string
	configPath string
	verbose    bool
	retries    int
	timeout    time.Duration

	version = "0.1.0"
	commit  = "none"
	date    = "unknown"
)

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config and MCP_LISTEN_ADDR)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
	rootCmd.Flags().IntVar(&retries, "retries", 3, "Maximum number of retries for outbound tool requests")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "Outbound tool request timeout")

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
