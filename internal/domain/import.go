package domain

// ImportItem is one normalized record produced by the guest import pipeline,
// ready to persist. Optional fields use the empty string for "absent"; the
// literal "no data" value (importer.NoData) is distinct from absent and means
// the user explicitly marked the field as unknown.
type ImportItem struct {
	Kind      GuestKind `json:"kind"`
	ParentKey string    `json:"parent_key,omitempty"` // "FirstName LastName" of the parent guest; sub-guests only
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"` // canonical digit/plus form; never set for sub-guests
	Email     string    `json:"email,omitempty"` // never set for sub-guests
	Relation  string    `json:"relation,omitempty"`
	Side      string    `json:"side,omitempty"`
	RSVP      string    `json:"rsvp,omitempty"`
	Allergens string    `json:"allergens,omitempty"`
	Notes     string    `json:"notes,omitempty"`

	// Row is the 1-based spreadsheet row this item came from, counting the
	// header as row 1. Used to attribute later-stage diagnostics.
	Row int `json:"row"`
}

// ImportIssue is a single diagnostic attached to a spreadsheet row.
// Errors block the import action; warnings do not.
type ImportIssue struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is the full outcome of one run of the import pipeline.
// It is created fresh on every parse and read once by the caller to decide
// whether the batch may be submitted for persistence.
type ImportResult struct {
	Items         []ImportItem  `json:"items"`
	Errors        []ImportIssue `json:"errors"`
	Warnings      []ImportIssue `json:"warnings"`
	GuestCount    int           `json:"guest_count"`
	SubguestCount int           `json:"subguest_count"`
}

// OK reports whether the import action is permitted: no blocking errors and
// at least one accepted item.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Items) > 0
}
