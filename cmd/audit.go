package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"invoicedesk/internal/repositories"
	"invoicedesk/internal/services"
	"invoicedesk/pkg/database"

	"github.com/spf13/cobra"
)

var auditJSON bool

var auditLedgerCmd = &cobra.Command{
	Use:   "audit-ledger",
	Short: "Check every invoice against its Sale and Payment transactions",
	Long: `audit-ledger reads the whole ledger and reports invoices that do not have
exactly one Sale for their total and one Payment when PAID. It never
modifies data and exits non-zero when anomalies are found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := database.NewPool(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer database.ClosePool(pool)

		report, err := services.NewLedgerAuditService(repositories.NewStore(pool)).Audit(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if auditJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "Ledger audit at %s: %d anomalies\n", report.CheckedAt.Format("2006-01-02 15:04:05"), len(report.Anomalies))
			for _, a := range report.Anomalies {
				fmt.Fprintf(out, "  %s (%s, %s): %s\n", a.Reference, a.InvoiceID, a.Status, strings.Join(a.Problems(), "; "))
			}
		}

		if !report.Healthy() {
			return fmt.Errorf("ledger has %d anomalous invoices", len(report.Anomalies))
		}
		return nil
	},
}

func init() {
	auditLedgerCmd.Flags().BoolVar(&auditJSON, "json", false, "print the report as JSON")
	auditLedgerCmd.SetOut(os.Stdout)
}
