package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SzymonPisula/ceremoday/internal/domain"
	"github.com/SzymonPisula/ceremoday/internal/importer"
)

// ---- helpers ---------------------------------------------------------------

// multipartCSV builds a multipart request body with the given CSV content
// under the form field "file", the way a browser file upload looks.
func multipartCSV(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "guests.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

const sampleCSV = "Type,FirstName,LastName\nGuest,Jan,Kowalski\n"

// ---- POST /api/guests/import/preview ---------------------------------------

func TestImportPreview_200_ReportWithoutPersisting(t *testing.T) {
	committed := false
	imports := &mockImportServicer{
		preview: func(header []string, rows []importer.Row) domain.ImportResult {
			assert.Equal(t, []string{"Type", "FirstName", "LastName"}, header)
			require.Len(t, rows, 1)
			return domain.ImportResult{
				Items:      []domain.ImportItem{{Row: 2, Kind: domain.KindGuest, FirstName: "Jan", LastName: "Kowalski"}},
				Errors:     []domain.ImportIssue{},
				Warnings:   []domain.ImportIssue{{Row: 2, Message: "no phone or email"}},
				GuestCount: 1,
			}
		},
		commit: func(_ context.Context, _ []string, _ []importer.Row) (domain.ImportResult, []domain.Guest, error) {
			committed = true
			return domain.ImportResult{}, nil, nil
		},
	}

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/guests/import/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newRouter(nil, imports).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, committed)

	var report domain.ImportResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 1, report.GuestCount)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, 2, report.Warnings[0].Row)
}

// ---- POST /api/guests/import -----------------------------------------------

func TestImportCommit_201(t *testing.T) {
	imports := &mockImportServicer{
		commit: func(_ context.Context, _ []string, _ []importer.Row) (domain.ImportResult, []domain.Guest, error) {
			return domain.ImportResult{
				Items:      []domain.ImportItem{{Row: 2}},
				Warnings:   []domain.ImportIssue{},
				GuestCount: 1,
			}, []domain.Guest{guestFixture()}, nil
		},
	}

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/guests/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newRouter(nil, imports).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Imported      int                  `json:"imported"`
		GuestCount    int                  `json:"guest_count"`
		SubguestCount int                  `json:"subguest_count"`
		Warnings      []domain.ImportIssue `json:"warnings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, 1, resp.GuestCount)
	assert.Empty(t, resp.Warnings)
}

func TestImportCommit_422_BlockedReturnsReport(t *testing.T) {
	imports := &mockImportServicer{
		commit: func(_ context.Context, _ []string, _ []importer.Row) (domain.ImportResult, []domain.Guest, error) {
			report := domain.ImportResult{
				Items:  []domain.ImportItem{},
				Errors: []domain.ImportIssue{{Row: 3, Message: "LastName is required"}},
			}
			return report, nil, fmt.Errorf("service.ImportService.Commit: %w", domain.ErrImportBlocked)
		},
	}

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/guests/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newRouter(nil, imports).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var report domain.ImportResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)
}

func TestImportCommit_400_NoFileField(t *testing.T) {
	imports := &mockImportServicer{}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "not a file"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/guests/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	newRouter(nil, imports).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportCommit_400_EmptyFile(t *testing.T) {
	imports := &mockImportServicer{}

	body, contentType := multipartCSV(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/guests/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newRouter(nil, imports).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp["error"]["message"], "could not read file")
}

// ---- GET /api/guests/import/template ---------------------------------------

func TestImportTemplate_200_CSVAttachment(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/guests/import/template", nil)
	rec := httptest.NewRecorder()

	newRouter(nil, &mockImportServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "guest-import-template.csv")

	line := strings.TrimSpace(rec.Body.String())
	assert.Equal(t, "Type,FirstName,LastName,Phone,Email,Relation,Side,RSVP,Allergens,Notes,ParentKey", line)
}
