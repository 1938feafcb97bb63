package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, sub-guest without a parent).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrImportBlocked is returned when an import commit is attempted while the
// parsed batch still carries blocking errors, or produced no items at all.
// Handlers should map this to HTTP 422 and include the diagnostic report.
var ErrImportBlocked = errors.New("import blocked")
