// Package service contains the business logic for the CeremoDay backend.
// Services validate inputs, enforce business rules, and orchestrate repo
// calls. No SQL lives here — services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SzymonPisula/ceremoday/internal/domain"
	"github.com/SzymonPisula/ceremoday/internal/importer"
	"github.com/SzymonPisula/ceremoday/internal/repo"
)

// GuestService implements business logic for guest CRUD operations.
type GuestService struct {
	guests repo.GuestRepo
}

// NewGuestService constructs a GuestService backed by the provided GuestRepo.
func NewGuestService(guests repo.GuestRepo) *GuestService {
	return &GuestService{guests: guests}
}

// Create validates and persists a new guest or sub-guest.
// Returns domain.ErrValidation if input violates business rules, and
// domain.ErrNotFound if a sub-guest references a parent that does not exist.
func (s *GuestService) Create(ctx context.Context, guest domain.Guest) (domain.Guest, error) {
	guest = trimGuest(guest)
	if err := validateGuest(guest); err != nil {
		return domain.Guest{}, err
	}
	if guest.Kind == domain.KindSubguest {
		if err := s.checkParent(ctx, *guest.ParentID); err != nil {
			return domain.Guest{}, fmt.Errorf("service.GuestService.Create: %w", err)
		}
	}
	result, err := s.guests.Create(ctx, guest)
	if err != nil {
		return domain.Guest{}, fmt.Errorf("service.GuestService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single guest by ID.
// Returns domain.ErrNotFound if no guest with that ID exists.
func (s *GuestService) GetByID(ctx context.Context, id uuid.UUID) (domain.Guest, error) {
	result, err := s.guests.GetByID(ctx, id)
	if err != nil {
		return domain.Guest{}, fmt.Errorf("service.GuestService.GetByID: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of guests plus the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *GuestService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Guest, int64, error) {
	guests, total, err := s.guests.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.GuestService.ListPaged: %w", err)
	}
	if guests == nil {
		guests = []domain.Guest{}
	}
	return guests, total, nil
}

// Update validates and persists changes to an existing guest.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// guest does not exist.
func (s *GuestService) Update(ctx context.Context, guest domain.Guest) (domain.Guest, error) {
	guest = trimGuest(guest)
	if err := validateGuest(guest); err != nil {
		return domain.Guest{}, err
	}
	if guest.Kind == domain.KindSubguest {
		if err := s.checkParent(ctx, *guest.ParentID); err != nil {
			return domain.Guest{}, fmt.Errorf("service.GuestService.Update: %w", err)
		}
	}
	result, err := s.guests.Update(ctx, guest)
	if err != nil {
		return domain.Guest{}, fmt.Errorf("service.GuestService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a guest by ID; attached sub-guests are removed with it.
// Returns domain.ErrNotFound if the guest does not exist.
func (s *GuestService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.guests.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.GuestService.Delete: %w", err)
	}
	return nil
}

// checkParent verifies that the referenced parent exists and is a top-level
// guest — sub-guests cannot be nested under other sub-guests.
func (s *GuestService) checkParent(ctx context.Context, parentID uuid.UUID) error {
	parent, err := s.guests.GetByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.Kind != domain.KindGuest {
		return fmt.Errorf("%w: parent must be a guest, not a sub-guest", domain.ErrValidation)
	}
	return nil
}

// trimGuest normalizes the free-text fields before validation.
func trimGuest(g domain.Guest) domain.Guest {
	g.FirstName = strings.TrimSpace(g.FirstName)
	g.LastName = strings.TrimSpace(g.LastName)
	g.Phone = strings.TrimSpace(g.Phone)
	g.Email = strings.TrimSpace(g.Email)
	g.Allergens = strings.TrimSpace(g.Allergens)
	g.Notes = strings.TrimSpace(g.Notes)
	return g
}

// validateGuest enforces business rules common to both Create and Update.
//   - Kind must be one of the two known kinds.
//   - First and last name must be non-empty.
//   - A sub-guest must carry a ParentID and no contact fields; a guest must not
//     carry a ParentID.
//   - A guest's contact fields, when present, must look like an email address
//     and a 7-15 digit phone number.
func validateGuest(g domain.Guest) error {
	if !g.Kind.Valid() {
		return fmt.Errorf("%w: kind must be %q or %q", domain.ErrValidation, domain.KindGuest, domain.KindSubguest)
	}
	if g.FirstName == "" {
		return fmt.Errorf("%w: first_name is required", domain.ErrValidation)
	}
	if g.LastName == "" {
		return fmt.Errorf("%w: last_name is required", domain.ErrValidation)
	}

	switch g.Kind {
	case domain.KindSubguest:
		if g.ParentID == nil {
			return fmt.Errorf("%w: parent_id is required for a sub-guest", domain.ErrValidation)
		}
		if g.Phone != "" || g.Email != "" {
			return fmt.Errorf("%w: a sub-guest has no independent contact fields", domain.ErrValidation)
		}
	case domain.KindGuest:
		if g.ParentID != nil {
			return fmt.Errorf("%w: parent_id is only valid for a sub-guest", domain.ErrValidation)
		}
		if g.Email != "" && !importer.IsEmailShape(g.Email) {
			return fmt.Errorf("%w: email is malformed", domain.ErrValidation)
		}
		if !importer.IsPhoneShape(g.Phone) {
			return fmt.Errorf("%w: phone must contain 7-15 digits", domain.ErrValidation)
		}
	}
	return nil
}
