package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PentesterFlow/workshopgraph/internal/output"
	"github.com/PentesterFlow/workshopgraph/internal/server"
	"github.com/PentesterFlow/workshopgraph/internal/shutdown"
	"github.com/PentesterFlow/workshopgraph/internal/state"
	"github.com/PentesterFlow/workshopgraph/pkg/workshop"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool
	jsonLogs   bool

	// Serve flags
	listenAddr  string
	maxInFlight int
	timeout     int

	// Analyze flags
	serverURL string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "workshopgraph",
		Short: "workshopgraph - Steam Workshop dependency resolver",
		Long: `workshopgraph - Classifies Steam Workshop pages and resolves their dependencies.

Single items are reported with their Workshop ID, Mod ID and Map Folder fields
followed by every required item, recursively. Collections are expanded into
their children.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis server",
		Long:  "Serve POST /analyze, GET /healthz and GET /metrics.",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [url]",
		Short: "Send URLs to a running server",
		Long:  "Send a URL to a running server and print its report. Without an argument, prompt for URLs until 'exit'.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnalyze,
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve [url...]",
		Short: "Resolve URLs in-process",
		Long:  "Resolve one or more URLs without a server and print each report.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runResolve,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit JSON logs")

	// Resolver flags
	for _, cmd := range []*cobra.Command{serveCmd, resolveCmd} {
		cmd.Flags().IntVar(&maxInFlight, "max-in-flight", 16, "Maximum concurrent page fetches")
		cmd.Flags().IntVarP(&timeout, "timeout", "t", 120, "Per-request timeout in seconds (0 = none)")
	}
	serveCmd.Flags().StringVarP(&listenAddr, "addr", "a", "", "Listen address (default from config or PORT)")

	analyzeCmd.Flags().StringVarP(&serverURL, "server", "s", "http://localhost:4567", "Server base URL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(resolveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the config file, environment and command-line flags,
// in increasing order of precedence.
func loadConfig(cmd *cobra.Command) (*workshop.Config, error) {
	config := workshop.DefaultConfig()
	if configFile != "" {
		fileConfig, err := workshop.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	config.ApplyEnv()

	if cmd.Flags().Changed("addr") {
		config.ListenAddr = listenAddr
	}
	if cmd.Flags().Changed("max-in-flight") {
		config.MaxInFlight = maxInFlight
	}
	if cmd.Flags().Changed("timeout") {
		config.RequestTimeout = time.Duration(timeout) * time.Second
	}

	switch {
	case debug:
		config.LogLevel = "trace"
	case verbose:
		config.LogLevel = "debug"
	}
	if jsonLogs {
		config.LogPretty = false
	}

	return config, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := workshop.New(workshop.WithConfig(config))
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	log := a.Logger()

	srv := server.New(config.Server, a, a.Metrics(), log)

	sdCfg := shutdown.DefaultConfig()
	sdCfg.Timeout = config.Server.ShutdownTimeout
	sdCfg.Logger = log
	sd := shutdown.New(sdCfg)
	sd.Register("analyzer", func(ctx context.Context) error {
		a.Close()
		return nil
	})
	sd.RegisterServer("http", srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe(config.ListenAddr)
		cancel()
	}()

	result := sd.Wait(ctx)
	if err := <-serveErr; err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	if result.HasErrors() {
		return fmt.Errorf("shutdown finished with %d error(s)", len(result.Errors))
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := workshop.New(workshop.WithConfig(config))
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	defer a.Close()

	return resolveAll(cmd.Context(), a, args, os.Stdout, os.Stderr)
}

// resolver is the part of workshop.Analyzer the resolve command uses.
type resolver interface {
	Resolve(ctx context.Context, st *state.Traversal, url string) (string, error)
}

// resolveAll prints a framed report per target. Targets that fail to resolve
// are reported on errw and counted; a failed write stops the run.
func resolveAll(ctx context.Context, r resolver, targets []string, w, errw io.Writer) error {
	// One session for all arguments so repeated URLs come from the cache.
	st := state.NewTraversal()
	failed := 0
	for _, target := range targets {
		report, err := r.Resolve(ctx, st, target)
		if err != nil {
			fmt.Fprintf(errw, "%s: %v\n", target, err)
			failed++
			continue
		}
		if err := output.WriteFramed(w, target, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d URL(s) failed", failed, len(targets))
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	c := newAnalyzeClient(serverURL)

	if len(args) == 1 {
		return c.send(cmd.Context(), args[0], os.Stdout)
	}
	return c.interactive(cmd.Context(), os.Stdin, os.Stdout)
}
