// cmd/main.go is the application entry point.
// The serve command wires together all layers and starts the HTTP server;
// migrate applies the database schema.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/ticketpass/internal/config"
	"github.com/Shivanand-hulikatti/ticketpass/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "ticketpass",
	Short:         "Seat booking service with signed QR passes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ticketpass: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger.
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}
