package services

import (
	"invoicedesk/internal/models"

	"github.com/google/uuid"
)

// AccessFilter decides which invoices, and through them which ledger entries,
// an actor may see. Records outside the filter are reported as not found.
type AccessFilter interface {
	// Scope returns the repository predicate. ok is false when the actor may
	// see nothing at all.
	Scope() (scope models.Scope, ok bool)
	CanView(invoice *models.Invoice) bool
}

// AccessFor picks the filter variant for the actor
func AccessFor(actor *models.Actor) AccessFilter {
	switch {
	case actor == nil:
		return anonymousAccess{}
	case actor.Elevated:
		return elevatedAccess{}
	default:
		return ownerAccess{ownerID: actor.ID}
	}
}

type elevatedAccess struct{}

func (elevatedAccess) Scope() (models.Scope, bool) {
	return models.AllRows(), true
}

func (elevatedAccess) CanView(invoice *models.Invoice) bool {
	return invoice != nil
}

type ownerAccess struct {
	ownerID uuid.UUID
}

func (a ownerAccess) Scope() (models.Scope, bool) {
	return models.OwnedBy(a.ownerID), true
}

func (a ownerAccess) CanView(invoice *models.Invoice) bool {
	return invoice != nil && invoice.CreatedBy == a.ownerID
}

type anonymousAccess struct{}

func (anonymousAccess) Scope() (models.Scope, bool) {
	return models.Scope{}, false
}

func (anonymousAccess) CanView(*models.Invoice) bool {
	return false
}
