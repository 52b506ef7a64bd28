// Package main is the entry point for the modus binary.
// It provides a CLI for running the agent with an interactive input loop.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/modusai/modus/pkg/agent"
	"github.com/modusai/modus/pkg/config"
	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/logging"
	"github.com/modusai/modus/pkg/module"
	"github.com/modusai/modus/pkg/modules"
	"github.com/modusai/modus/pkg/telemetry"
)

const (
	defaultConfigPath = "config.yaml"
	defaultLogLevel   = "info"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for modus
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modus",
		Short: "Modular agent runtime",
		Long: `Modus runs a single-process agent that streams records through named
module pipelines, carrying agent state forward between calls.

Input lines are processed through the configured default pipeline; state
mutations emitted by modules persist for the lifetime of the process.

Example:
  modus --config config.yaml --log-level debug`,
		RunE: runAgent,
	}

	rootCmd.Flags().StringP("config", "c", defaultConfigPath, "Path to configuration file (YAML)")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error); overrides config")
	rootCmd.Flags().Bool("pretty", false, "Enable human-readable console logging")
	rootCmd.Flags().String("admin-addr", "", "Admin/metrics listen address; overrides config")

	return rootCmd
}

func runAgent(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	pretty, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return fmt.Errorf("failed to get pretty flag: %w", err)
	}
	adminAddr, err := cmd.Flags().GetString("admin-addr")
	if err != nil {
		return fmt.Errorf("failed to get admin-addr flag: %w", err)
	}

	// Config provider (initial load + file watch)
	provider, err := config.NewFileProvider(configPath, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	defer func() {
		if err := provider.Close(); err != nil {
			slog.Error("failed to close config provider", "error", err)
		}
	}()
	cfg := provider.Current()

	// Logging
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
	if logLevel == "" {
		logLevel = defaultLogLevel
	}
	logger := logging.NewLogger(logging.Config{
		Level:  logLevel,
		Pretty: pretty || cfg.Logging.Pretty,
	})
	slog.SetDefault(logger)

	logger.Info("starting modus", "config", configPath)

	// Telemetry
	shutdownTelemetry, err := telemetry.SetupProvider(cmd.Context(), telemetry.Config{
		ServiceName: "modus",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// Core components
	registry := module.NewRegistry()
	modules.RegisterBuiltins(registry)

	metrics := agent.NewMetrics()
	ag := agent.New(agent.Options{
		Registry: registry,
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
	})
	ag.Initialize()
	defer ag.Shutdown()

	// Config watcher: reloaded pipeline catalogs apply to new process calls.
	go watchConfig(provider, ag, logger)

	// Admin listener
	if adminAddr == "" {
		adminAddr = cfg.Admin.Address
	}
	var adminServer *http.Server
	if adminAddr != "" {
		adminServer = startAdminServer(adminAddr, metrics, logger)
		defer stopAdminServer(adminServer, logger)
	}

	// Shutdown signals end the read loop.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runReadLoop(ctx, ag, logger)

	logger.Info("modus stopped")
	return nil
}

// watchConfig applies reloaded pipeline catalogs to the running agent. The
// first snapshot is the one the agent was built from and is skipped.
func watchConfig(provider *config.FileProvider, ag *agent.Agent, logger *slog.Logger) {
	updates := provider.Subscribe()
	first := true
	for cfg := range updates {
		if first {
			first = false
			continue
		}
		for name, moduleNames := range cfg.Pipelines {
			ag.RegisterPipeline(name, moduleNames)
		}
		logger.Info("pipeline catalog updated", "pipelines", len(cfg.Pipelines))
	}
}

// runReadLoop reads input lines and processes each through the agent until
// EOF, "exit", or signal-driven context cancellation.
func runReadLoop(ctx context.Context, ag *agent.Agent, logger *slog.Logger) {
	fmt.Println("Agent is running. Type 'exit' to quit.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("input> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			logger.Info("shutdown signal received")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !handleLine(ctx, ag, logger, strings.TrimSpace(line)) {
				return
			}
		}
	}
}

// handleLine processes one input line. It returns false when the loop should
// terminate.
func handleLine(ctx context.Context, ag *agent.Agent, logger *slog.Logger, line string) bool {
	switch {
	case line == "":
		return true
	case strings.EqualFold(line, "exit"):
		return false
	case line == `\state`:
		printJSON(ag.State())
		return true
	case line == `\pipelines`:
		pipelines := ag.Pipelines()
		names := make([]string, 0, len(pipelines))
		for name := range pipelines {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s: %s\n", name, strings.Join(pipelines[name], " -> "))
		}
		return true
	}

	result, err := ag.Process(ctx, domain.Record{"user_input": line}, "")
	if err != nil {
		logger.Error("error processing input", "error", err)
		return true
	}
	printJSON(result)
	return true
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(data))
}

func startAdminServer(addr string, metrics *agent.Metrics, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Handler:      otelhttp.NewHandler(mux, "modus.admin"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to bind admin listener", "addr", addr, "error", err)
		os.Exit(1)
	}

	// Log the actual resolved address (useful when addr is :0)
	logger.Info("admin server listening", "addr", listener.Addr().String())

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("admin server failed", "error", err)
		}
	}()

	return server
}

func stopAdminServer(server *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("admin server shutdown error", "error", err)
	}
}
