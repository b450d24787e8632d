package models

import "github.com/google/uuid"

// Actor is the authenticated caller of a service operation. A nil *Actor
// means the request is unauthenticated.
type Actor struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Elevated bool      `json:"is_staff"`
}

// Scope is the row predicate the access filter hands to the stores.
// A nil OwnerID means every row is visible.
type Scope struct {
	OwnerID *uuid.UUID
}

// AllRows is the scope of an elevated actor
func AllRows() Scope {
	return Scope{}
}

// OwnedBy restricts rows to invoices created by the given account
func OwnedBy(id uuid.UUID) Scope {
	return Scope{OwnerID: &id}
}
