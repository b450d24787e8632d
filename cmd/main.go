package main

import (
	"fmt"
	"os"

	"invoicedesk/internal/config"
	"invoicedesk/internal/logger"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoicedesk",
	Short: "Invoice lifecycle and transaction ledger service",
	Long: `invoicedesk records invoices, settles them and keeps an append-only
ledger of Sale and Payment transactions for every invoice.

Run "invoicedesk serve" to start the HTTP API.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = logger.Setup(logger.DefaultConfig())

	rootCmd.AddCommand(serveCmd, migrateCmd, auditLedgerCmd)

	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and reconfigures the global logger from it
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return nil, fmt.Errorf("invalid log configuration: %w", err)
	}
	return cfg, nil
}
