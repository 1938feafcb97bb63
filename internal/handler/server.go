// Package handler implements the HTTP handlers for the CeremoDay API.
// All handlers are methods on Server; they are split into resource-specific
// files (health.go, guest.go, import.go) but share the same struct so they
// can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SzymonPisula/ceremoday/internal/domain"
	"github.com/SzymonPisula/ceremoday/internal/importer"
	"github.com/SzymonPisula/ceremoday/spec"
)

// GuestServicer defines the business operations the guest handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type GuestServicer interface {
	Create(ctx context.Context, guest domain.Guest) (domain.Guest, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Guest, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Guest, int64, error)
	Update(ctx context.Context, guest domain.Guest) (domain.Guest, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImportServicer defines the operations the import handlers depend on.
type ImportServicer interface {
	Preview(header []string, rows []importer.Row) domain.ImportResult
	Commit(ctx context.Context, header []string, rows []importer.Row) (domain.ImportResult, []domain.Guest, error)
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	guests  GuestServicer
	imports ImportServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(guests GuestServicer, imports ImportServicer) *Server {
	return &Server{guests: guests, imports: imports}
}

// Routes builds the chi router for the full API surface. Cross-cutting
// middleware (request ID, logging, CORS, body limits) is applied by the
// caller; this router only knows about paths.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/openapi.yaml", s.handleOpenAPI)

	r.Route("/api/guests", func(r chi.Router) {
		r.Get("/", s.handleListGuests)
		r.Post("/", s.handleCreateGuest)

		r.Route("/import", func(r chi.Router) {
			r.Post("/", s.handleImportCommit)
			r.Post("/preview", s.handleImportPreview)
			r.Get("/template", s.handleImportTemplate)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGuest)
			r.Put("/", s.handleUpdateGuest)
			r.Delete("/", s.handleDeleteGuest)
		})
	})

	return r
}

// handleOpenAPI serves the embedded OpenAPI document. Serving it from the
// binary means the spec and the running code are always in sync.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(spec.OpenAPI) //nolint:errcheck — nothing useful to do on a failed write
}
