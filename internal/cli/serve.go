package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	otelapi "go.opentelemetry.io/otel"

	"redmine-mcp-server/internal/application"
	"redmine-mcp-server/internal/domain"
	"redmine-mcp-server/internal/infrastructure"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on the configured transport",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version)
		},
	}
}

func runServe(cmd *cobra.Command, version string) error {
	configPath, _ := cmd.Flags().GetString("config")

	config, err := domain.LoadConfig(configPath)
	if err != nil {
		return exitError(ExitConfig, "failed to load configuration: %v", err)
	}

	logger := application.NewLogger(config.Logging)

	server, err := buildServer(config, logger, version)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build server")
		return exitError(ExitConfig, "%v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return exitError(ExitRuntime, "server failed to start: %v", err)
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("initiating graceful shutdown")
	case <-server.Done():
		logger.Info().Msg("transport finished, shutting down")
	}

	if err := server.Close(); err != nil {
		return exitError(ExitRuntime, "error during server shutdown: %v", err)
	}
	logger.Info().Msg("server shutdown complete")
	return nil
}

// buildServer wires the client, tool providers, registry, dispatcher and transport.
func buildServer(config *domain.Config, logger zerolog.Logger, version string) (*application.Server, error) {
	meters := otelapi.GetMeterProvider()

	client, err := infrastructure.NewClient(
		config.Credentials(),
		config.RetryPolicy(),
		config.Timeout(),
		infrastructure.WithLogger(logger.With().Str("component", "client").Logger()),
		infrastructure.WithMeter(meters.Meter(infrastructure.MeterName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redmine client: %w", err)
	}

	registry := application.NewToolRegistry()
	if err := registry.RegisterProviders(application.DefaultProviders(client)...); err != nil {
		return nil, err
	}

	dispatcher, err := application.NewDispatcher(registry,
		application.WithDispatcherLogger(logger.With().Str("component", "dispatcher").Logger()),
		application.WithDispatcherMeter(meters.Meter(application.MeterName)),
	)
	if err != nil {
		return nil, err
	}

	var transport domain.Transport
	switch config.Transport.Type {
	case "http":
		transport = domain.NewHTTPTransport(config.Transport.HTTP.Host, config.Transport.HTTP.Port, logger)
	default:
		transport = domain.NewStdioTransport(logger)
	}

	return application.NewServer(transport, registry, dispatcher, config, logger, version), nil
}
