// import.go implements the bulk guest import endpoints. The spreadsheet is
// uploaded as a multipart CSV; decoding, validation, and persistence are
// delegated to the importer pipeline and the import service, so these
// handlers only translate between HTTP and the pipeline's contract.
package handler

import (
	"errors"
	"net/http"

	"github.com/SzymonPisula/ceremoday/internal/domain"
	"github.com/SzymonPisula/ceremoday/internal/importer"
)

// maxImportMemory bounds the multipart form buffer; larger file parts spill
// to disk. The request body itself is capped by the max-body-size middleware.
const maxImportMemory = 10 << 20

const templateFilename = "guest-import-template.csv"

// handleImportPreview handles POST /api/guests/import/preview.
// It runs the pipeline and returns the full diagnostic report — items,
// errors, warnings, counts — without persisting anything. The UI uses it to
// show what an import would do.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	header, rows, ok := readImportFile(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, s.imports.Preview(header, rows))
}

// handleImportCommit handles POST /api/guests/import.
// A clean batch is persisted and answered with 201; a blocked batch is
// answered with 422 and the diagnostic report so the user can fix the file.
func (s *Server) handleImportCommit(w http.ResponseWriter, r *http.Request) {
	header, rows, ok := readImportFile(w, r)
	if !ok {
		return
	}

	report, stored, err := s.imports.Commit(r.Context(), header, rows)
	if err != nil {
		if errors.Is(err, domain.ErrImportBlocked) {
			writeJSON(w, http.StatusUnprocessableEntity, report)
			return
		}
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Imported      int                  `json:"imported"`
		GuestCount    int                  `json:"guest_count"`
		SubguestCount int                  `json:"subguest_count"`
		Warnings      []domain.ImportIssue `json:"warnings"`
	}{
		Imported:      len(stored),
		GuestCount:    report.GuestCount,
		SubguestCount: report.SubguestCount,
		Warnings:      report.Warnings,
	})
}

// handleImportTemplate handles GET /api/guests/import/template.
// It serves the blank spreadsheet template whose header row matches the
// pipeline's column contract exactly.
func (s *Server) handleImportTemplate(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+templateFilename+`"`)
	w.Write(importer.TemplateCSV()) //nolint:errcheck — nothing useful to do on a failed write
}

// readImportFile extracts and decodes the uploaded CSV from the multipart
// form field "file". A file that cannot be read or parsed is a 400 — the
// "could not read file" failure mode is distinct from the pipeline's
// diagnostic report. Writes the error response itself and reports ok=false
// on failure.
func readImportFile(w http.ResponseWriter, r *http.Request) ([]string, []importer.Row, bool) {
	if err := r.ParseMultipartForm(maxImportMemory); err != nil {
		writeBadRequest(w, "file too large or invalid form")
		return nil, nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "no file provided")
		return nil, nil, false
	}
	defer file.Close()

	header, rows, err := importer.ReadCSV(file)
	if err != nil {
		writeBadRequest(w, "could not read file: "+err.Error())
		return nil, nil, false
	}
	return header, rows, true
}
