package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/SzymonPisula/ceremoday/internal/domain"
	"github.com/SzymonPisula/ceremoday/internal/importer"
	"github.com/SzymonPisula/ceremoday/internal/repo"
)

// ImportService orchestrates the bulk guest import: it runs the pipeline
// over decoded spreadsheet rows and, on commit, persists the accepted batch
// in one transaction.
type ImportService struct {
	pipeline *importer.Pipeline
	guests   repo.GuestRepo
}

// NewImportService constructs an ImportService around the given pipeline and repo.
func NewImportService(pipeline *importer.Pipeline, guests repo.GuestRepo) *ImportService {
	return &ImportService{pipeline: pipeline, guests: guests}
}

// Preview runs the pipeline and returns the full diagnostic report without
// touching the database. It is pure: the same input always yields the same
// report.
func (s *ImportService) Preview(header []string, rows []importer.Row) domain.ImportResult {
	return s.pipeline.Run(header, rows)
}

// Commit runs the pipeline and, if the report carries no blocking errors and
// at least one item, persists the whole batch atomically. The report is
// returned in every case so the caller can render diagnostics.
// Returns domain.ErrImportBlocked when the batch is not importable.
func (s *ImportService) Commit(ctx context.Context, header []string, rows []importer.Row) (domain.ImportResult, []domain.Guest, error) {
	report := s.pipeline.Run(header, rows)
	if !report.OK() {
		return report, nil, fmt.Errorf("service.ImportService.Commit: %w", domain.ErrImportBlocked)
	}

	batch := buildBatch(report.Items)
	stored, err := s.guests.CreateBatch(ctx, batch)
	if err != nil {
		return report, nil, fmt.Errorf("service.ImportService.Commit: %w", err)
	}
	return report, stored, nil
}

var importSpaceRun = regexp.MustCompile(`\s+`)

// batchNameKey is the equality under which a sub-guest's ParentKey matches a
// guest's name: lowercased, whitespace-collapsed. It mirrors the pipeline's
// parent resolution policy, so a batch that passed the pipeline always
// resolves here too.
func batchNameKey(s string) string {
	return importSpaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// buildBatch converts accepted pipeline items into domain guests with
// client-assigned IDs, resolving each sub-guest's ParentKey to its parent
// guest's ID. Pre-assigning IDs keeps the repo layer free of name-matching
// logic: it just inserts rows.
func buildBatch(items []domain.ImportItem) []domain.Guest {
	guests := make([]domain.Guest, 0, len(items))
	parentIDs := make(map[string]uuid.UUID)

	for _, it := range items {
		if it.Kind != domain.KindGuest {
			continue
		}
		g := itemToGuest(it)
		// First occurrence wins, mirroring the pipeline's duplicate policy.
		key := batchNameKey(it.FirstName + " " + it.LastName)
		if _, ok := parentIDs[key]; !ok {
			parentIDs[key] = g.ID
		}
		guests = append(guests, g)
	}

	for _, it := range items {
		if it.Kind != domain.KindSubguest {
			continue
		}
		g := itemToGuest(it)
		if pid, ok := parentIDs[batchNameKey(it.ParentKey)]; ok {
			g.ParentID = &pid
		}
		guests = append(guests, g)
	}

	return guests
}

// itemToGuest maps one normalized import item to a persistable guest.
func itemToGuest(it domain.ImportItem) domain.Guest {
	return domain.Guest{
		ID:        uuid.New(),
		Kind:      it.Kind,
		FirstName: it.FirstName,
		LastName:  it.LastName,
		Phone:     it.Phone,
		Email:     it.Email,
		Relation:  it.Relation,
		Side:      it.Side,
		RSVP:      it.RSVP,
		Allergens: it.Allergens,
		Notes:     it.Notes,
	}
}
