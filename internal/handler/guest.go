package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/SzymonPisula/ceremoday/internal/domain"
)

// guestRequest is the JSON body for POST and PUT /api/guests.
// Email uses the openapi Email type so a malformed address is rejected
// during decoding, before the service layer sees it.
type guestRequest struct {
	Kind      string                `json:"kind"`
	ParentID  *uuid.UUID            `json:"parent_id,omitempty"`
	FirstName string                `json:"first_name"`
	LastName  string                `json:"last_name"`
	Phone     string                `json:"phone,omitempty"`
	Email     *openapi_types.Email  `json:"email,omitempty"`
	Relation  string                `json:"relation,omitempty"`
	Side      string                `json:"side,omitempty"`
	RSVP      string                `json:"rsvp,omitempty"`
	Allergens string                `json:"allergens,omitempty"`
	Notes     string                `json:"notes,omitempty"`
}

// listResponse is the paged envelope for GET /api/guests.
type listResponse struct {
	Data       []domain.Guest `json:"data"`
	Pagination pagination     `json:"pagination"`
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// handleCreateGuest handles POST /api/guests.
func (s *Server) handleCreateGuest(w http.ResponseWriter, r *http.Request) {
	guest, ok := decodeGuest(w, r)
	if !ok {
		return
	}

	created, err := s.guests.Create(r.Context(), guest)
	if err != nil {
		writeError(w, err, "parent guest not found")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleListGuests handles GET /api/guests.
// Supports ?page= and ?limit= query parameters.
func (s *Server) handleListGuests(w http.ResponseWriter, r *http.Request) {
	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	guests, total, err := s.guests.ListPaged(r.Context(), params)
	if err != nil {
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Data: guests,
		Pagination: pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// handleGetGuest handles GET /api/guests/{id}.
func (s *Server) handleGetGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	guest, err := s.guests.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "guest not found")
		return
	}

	writeJSON(w, http.StatusOK, guest)
}

// handleUpdateGuest handles PUT /api/guests/{id}.
func (s *Server) handleUpdateGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	guest, ok := decodeGuest(w, r)
	if !ok {
		return
	}
	guest.ID = id

	updated, err := s.guests.Update(r.Context(), guest)
	if err != nil {
		writeError(w, err, "guest not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteGuest handles DELETE /api/guests/{id}.
func (s *Server) handleDeleteGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.guests.Delete(r.Context(), id); err != nil {
		writeError(w, err, "guest not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ---- request helpers -------------------------------------------------------

// decodeGuest reads and converts the JSON body shared by create and update.
// Writes the error response itself and reports ok=false on failure.
func decodeGuest(w http.ResponseWriter, r *http.Request) (domain.Guest, bool) {
	var body guestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return domain.Guest{}, false
	}

	guest := domain.Guest{
		Kind:      domain.GuestKind(body.Kind),
		ParentID:  body.ParentID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Phone:     body.Phone,
		Relation:  body.Relation,
		Side:      body.Side,
		RSVP:      body.RSVP,
		Allergens: body.Allergens,
		Notes:     body.Notes,
	}
	if body.Email != nil {
		guest.Email = string(*body.Email)
	}
	return guest, true
}

// pathID parses the {id} path parameter as a UUID.
// Writes the error response itself and reports ok=false on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid guest id")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an optional positive integer query parameter.
// Absent or malformed values yield nil, falling back to defaults downstream.
func queryInt(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
