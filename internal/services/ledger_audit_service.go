package services

import (
	"context"
	"strings"
	"time"

	"invoicedesk/internal/logger"
	"invoicedesk/internal/models"
	"invoicedesk/internal/repositories"

	"github.com/rs/zerolog"
)

// LedgerReport is the outcome of one audit run
type LedgerReport struct {
	CheckedAt time.Time              `json:"checked_at"`
	Anomalies []models.LedgerAnomaly `json:"anomalies"`
}

// Healthy reports whether every invoice has a consistent ledger
func (r *LedgerReport) Healthy() bool {
	return len(r.Anomalies) == 0
}

// LedgerAuditService checks, without mutating anything, that every invoice has
// exactly one Sale for its total and one Payment iff it is PAID.
type LedgerAuditService interface {
	Audit(ctx context.Context) (*LedgerReport, error)
}

type ledgerAuditService struct {
	store repositories.Store
	log   zerolog.Logger
}

func NewLedgerAuditService(store repositories.Store) LedgerAuditService {
	return &ledgerAuditService{
		store: store,
		log:   logger.WithComponent("ledger_audit"),
	}
}

func (s *ledgerAuditService) Audit(ctx context.Context) (*LedgerReport, error) {
	anomalies, err := s.store.Transactions().FindLedgerAnomalies(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Ledger audit failed")
		return nil, err
	}

	report := &LedgerReport{CheckedAt: time.Now().UTC(), Anomalies: anomalies}
	if report.Anomalies == nil {
		report.Anomalies = []models.LedgerAnomaly{}
	}

	for _, a := range report.Anomalies {
		s.log.Warn().
			Str("invoice_id", a.InvoiceID.String()).
			Str("reference", a.Reference).
			Str("status", a.Status).
			Int("sale_count", a.SaleCount).
			Int("payment_count", a.PaymentCount).
			Str("problems", strings.Join(a.Problems(), "; ")).
			Msg("Ledger anomaly")
	}
	s.log.Info().Int("anomalies", len(report.Anomalies)).Msg("Ledger audit complete")

	return report, nil
}
