package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SzymonPisula/ceremoday/internal/domain"
	"github.com/SzymonPisula/ceremoday/internal/importer"
	"github.com/SzymonPisula/ceremoday/internal/service"
)

func newImportService(guests *mockGuestRepo) *service.ImportService {
	return service.NewImportService(importer.New(importer.DefaultVocabulary()), guests)
}

func importRows() []importer.Row {
	return []importer.Row{
		{"Type": "Gość", "FirstName": "Jan", "LastName": "Kowalski", "Email": "jan@x.pl"},
		{"Type": "Gość", "FirstName": "Anna", "LastName": "Nowak", "Phone": "501502503"},
		{"Type": "Współgość", "FirstName": "Ala", "LastName": "Kowalska", "ParentKey": "Jan Kowalski"},
	}
}

// ---- Preview ---------------------------------------------------------------

func TestImportService_Preview_ReturnsReportWithoutPersisting(t *testing.T) {
	// No createBatch configured: a persistence call would panic the test.
	svc := newImportService(&mockGuestRepo{})

	report := svc.Preview(importer.Columns, importRows())

	assert.True(t, report.OK())
	assert.Equal(t, 2, report.GuestCount)
	assert.Equal(t, 1, report.SubguestCount)
}

// ---- Commit ----------------------------------------------------------------

func TestImportService_Commit_PersistsBatchWithResolvedParents(t *testing.T) {
	var got []domain.Guest
	svc := newImportService(&mockGuestRepo{
		createBatch: func(_ context.Context, gs []domain.Guest) ([]domain.Guest, error) {
			got = gs
			return gs, nil
		},
	})

	report, stored, err := svc.Commit(context.Background(), importer.Columns, importRows())

	require.NoError(t, err)
	assert.True(t, report.OK())
	require.Len(t, stored, 3)
	require.Len(t, got, 3)

	byName := make(map[string]domain.Guest, len(got))
	for _, g := range got {
		assert.NotEqual(t, [16]byte{}, [16]byte(g.ID), "every batch member gets a pre-assigned ID")
		byName[g.FirstName] = g
	}

	jan, ala := byName["Jan"], byName["Ala"]
	assert.Equal(t, domain.KindGuest, jan.Kind)
	assert.Nil(t, jan.ParentID)
	assert.Equal(t, domain.KindSubguest, ala.Kind)
	require.NotNil(t, ala.ParentID)
	assert.Equal(t, jan.ID, *ala.ParentID, "sub-guest resolves to its parent's batch ID")
}

func TestImportService_Commit_BlockedOnErrors(t *testing.T) {
	rows := append(importRows(), importer.Row{
		"Type": "Współgość", "FirstName": "Ola", "LastName": "Obca", "ParentKey": "Nikt Taki",
	})
	svc := newImportService(&mockGuestRepo{})

	report, stored, err := svc.Commit(context.Background(), importer.Columns, rows)

	assert.ErrorIs(t, err, domain.ErrImportBlocked)
	assert.Nil(t, stored)
	require.Len(t, report.Errors, 1, "the report is returned for rendering even when blocked")
}

func TestImportService_Commit_BlockedOnEmptyBatch(t *testing.T) {
	svc := newImportService(&mockGuestRepo{})

	_, _, err := svc.Commit(context.Background(), importer.Columns, nil)

	assert.ErrorIs(t, err, domain.ErrImportBlocked)
}

func TestImportService_Commit_RepoErrorIsReturned(t *testing.T) {
	svc := newImportService(&mockGuestRepo{
		createBatch: func(_ context.Context, _ []domain.Guest) ([]domain.Guest, error) {
			return nil, domain.ErrValidation
		},
	})

	_, stored, err := svc.Commit(context.Background(), importer.Columns, importRows())

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, stored)
}
