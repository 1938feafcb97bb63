// Package domain contains the core data types for the CeremoDay wedding
// planner backend. This package has zero external dependencies beyond uuid
// and is imported by every other internal package (importer, repo, service,
// handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// GuestKind distinguishes a top-level invitee from an attached one.
type GuestKind string

const (
	// KindGuest is a top-level invitee with independent contact information.
	KindGuest GuestKind = "guest"
	// KindSubguest is an invitee attached to exactly one guest (a plus-one
	// or child). Sub-guests never carry their own phone or email.
	KindSubguest GuestKind = "subguest"
)

// Valid reports whether k is one of the two known kinds.
func (k GuestKind) Valid() bool {
	return k == KindGuest || k == KindSubguest
}

// Guest represents a persisted invitee. A guest is the top-level aggregate;
// sub-guests reference their parent guest via ParentID.
type Guest struct {
	ID        uuid.UUID  `json:"id"`
	Kind      GuestKind  `json:"kind"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"` // set only when Kind is subguest
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone,omitempty"` // always empty for sub-guests
	Email     string     `json:"email,omitempty"` // always empty for sub-guests
	Relation  string     `json:"relation,omitempty"`
	Side      string     `json:"side,omitempty"`
	RSVP      string     `json:"rsvp,omitempty"`
	Allergens string     `json:"allergens,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DisplayName returns the "FirstName LastName" string used to reference a
// guest from a sub-guest import row.
func (g Guest) DisplayName() string {
	return g.FirstName + " " + g.LastName
}
