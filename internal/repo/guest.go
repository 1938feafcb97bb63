// Package repo contains all database access logic for the CeremoDay backend.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SzymonPisula/ceremoday/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
//
// Begin is included because CreateBatch needs transactional semantics; on a
// pgx.Tx it opens a savepoint, so the repo composes under an outer test tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// GuestRepo defines the persistence operations for guests and sub-guests.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type GuestRepo interface {
	// Create inserts a new guest and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, guest domain.Guest) (domain.Guest, error)

	// CreateBatch inserts a whole import batch atomically. IDs must be
	// assigned by the caller so sub-guest ParentID references resolve within
	// the batch; guests are inserted before sub-guests to satisfy the FK.
	CreateBatch(ctx context.Context, guests []domain.Guest) ([]domain.Guest, error)

	// GetByID retrieves a single guest by its UUID primary key.
	// Returns domain.ErrNotFound if no guest with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Guest, error)

	// ListPaged returns one page of guests ordered by last name, first name,
	// with sub-guests sorted directly after their parent, plus the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Guest, int64, error)

	// Update overwrites the mutable fields of an existing guest and returns
	// the updated record. Returns domain.ErrNotFound if it does not exist.
	Update(ctx context.Context, guest domain.Guest) (domain.Guest, error)

	// Delete removes a guest by ID; sub-guests cascade with their parent.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgGuestRepo is the Postgres implementation of GuestRepo.
type pgGuestRepo struct {
	db db
}

// NewGuestRepo constructs a GuestRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewGuestRepo(db db) GuestRepo {
	return &pgGuestRepo{db: db}
}

const guestColumns = `id, kind, parent_id, first_name, last_name, phone, email,
	relation, side, rsvp, allergens, notes, created_at, updated_at`

// Create inserts a new guest row and returns the full persisted record.
func (r *pgGuestRepo) Create(ctx context.Context, guest domain.Guest) (domain.Guest, error) {
	const q = `
		INSERT INTO guests (kind, parent_id, first_name, last_name, phone, email,
		                    relation, side, rsvp, allergens, notes)
		VALUES (@kind, @parent_id, @first_name, @last_name, @phone, @email,
		        @relation, @side, @rsvp, @allergens, @notes)
		RETURNING ` + guestColumns

	row := r.db.QueryRow(ctx, q, guestArgs(guest))
	result, err := scanGuest(row)
	if err != nil {
		return domain.Guest{}, fmt.Errorf("repo.GuestRepo.Create: %w", err)
	}
	return result, nil
}

// CreateBatch inserts the batch in a single transaction, guests first so
// sub-guest parent FKs resolve. The caller pre-assigns every ID.
func (r *pgGuestRepo) CreateBatch(ctx context.Context, guests []domain.Guest) ([]domain.Guest, error) {
	const q = `
		INSERT INTO guests (id, kind, parent_id, first_name, last_name, phone, email,
		                    relation, side, rsvp, allergens, notes)
		VALUES (@id, @kind, @parent_id, @first_name, @last_name, @phone, @email,
		        @relation, @side, @rsvp, @allergens, @notes)
		RETURNING ` + guestColumns

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.GuestRepo.CreateBatch: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck — no-op after commit

	inserted := make([]domain.Guest, 0, len(guests))
	for _, phase := range []domain.GuestKind{domain.KindGuest, domain.KindSubguest} {
		for _, g := range guests {
			if g.Kind != phase {
				continue
			}
			args := guestArgs(g)
			args["id"] = g.ID
			row := tx.QueryRow(ctx, q, args)
			stored, err := scanGuest(row)
			if err != nil {
				return nil, fmt.Errorf("repo.GuestRepo.CreateBatch: insert %s %s: %w", g.Kind, g.DisplayName(), err)
			}
			inserted = append(inserted, stored)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repo.GuestRepo.CreateBatch: commit: %w", err)
	}
	return inserted, nil
}

// GetByID retrieves a guest by primary key.
func (r *pgGuestRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Guest, error) {
	const q = `SELECT ` + guestColumns + ` FROM guests WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanGuest(row)
	if err != nil {
		return domain.Guest{}, fmt.Errorf("repo.GuestRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of guests plus the total row count.
// Ordering keys each sub-guest under its parent guest's name so households
// stay together across page boundaries.
func (r *pgGuestRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Guest, int64, error) {
	const q = `
		SELECT ` + guestColumns + `, count(*) OVER () AS total
		FROM guests g
		ORDER BY
			lower(coalesce((SELECT pg.last_name  FROM guests pg WHERE pg.id = g.parent_id), g.last_name)),
			lower(coalesce((SELECT pg.first_name FROM guests pg WHERE pg.id = g.parent_id), g.first_name)),
			g.parent_id NULLS FIRST,
			lower(g.last_name), lower(g.first_name)
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.GuestRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	var (
		guests []domain.Guest
		total  int64
	)
	for rows.Next() {
		g, t, err := scanGuestWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.GuestRepo.ListPaged: scan: %w", err)
		}
		guests = append(guests, g)
		total = t
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.GuestRepo.ListPaged: rows: %w", err)
	}

	return guests, total, nil
}

// Update overwrites the mutable fields of a guest and returns the updated record.
func (r *pgGuestRepo) Update(ctx context.Context, guest domain.Guest) (domain.Guest, error) {
	const q = `
		UPDATE guests
		SET kind       = @kind,
		    parent_id  = @parent_id,
		    first_name = @first_name,
		    last_name  = @last_name,
		    phone      = @phone,
		    email      = @email,
		    relation   = @relation,
		    side       = @side,
		    rsvp       = @rsvp,
		    allergens  = @allergens,
		    notes      = @notes,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + guestColumns

	args := guestArgs(guest)
	args["id"] = guest.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanGuest(row)
	if err != nil {
		return domain.Guest{}, fmt.Errorf("repo.GuestRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a guest by primary key; sub-guest rows cascade via the FK.
func (r *pgGuestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM guests WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.GuestRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.GuestRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// guestArgs builds the named arguments shared by the insert and update statements.
func guestArgs(g domain.Guest) pgx.NamedArgs {
	return pgx.NamedArgs{
		"kind":       string(g.Kind),
		"parent_id":  g.ParentID, // nil becomes NULL
		"first_name": g.FirstName,
		"last_name":  g.LastName,
		"phone":      g.Phone,
		"email":      g.Email,
		"relation":   g.Relation,
		"side":       g.Side,
		"rsvp":       g.RSVP,
		"allergens":  g.Allergens,
		"notes":      g.Notes,
	}
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanGuest to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanGuest maps a single database row into a domain.Guest.
// It handles the UUID and nullable parent_id conversions.
func scanGuest(s scanner) (domain.Guest, error) {
	g, _, err := scanGuestDests(s, false)
	return g, err
}

// scanGuestWithTotal scans a guest row that carries a trailing window-count column.
func scanGuestWithTotal(s scanner) (domain.Guest, int64, error) {
	return scanGuestDests(s, true)
}

func scanGuestDests(s scanner, withTotal bool) (domain.Guest, int64, error) {
	var (
		g        domain.Guest
		id       pgtype.UUID
		kind     string
		parentID pgtype.UUID
		total    int64
	)

	dests := []any{
		&id, &kind, &parentID, &g.FirstName, &g.LastName, &g.Phone, &g.Email,
		&g.Relation, &g.Side, &g.RSVP, &g.Allergens, &g.Notes, &g.CreatedAt, &g.UpdatedAt,
	}
	if withTotal {
		dests = append(dests, &total)
	}

	if err := s.Scan(dests...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Guest{}, 0, domain.ErrNotFound
		}
		return domain.Guest{}, 0, err
	}

	g.ID = uuid.UUID(id.Bytes)
	g.Kind = domain.GuestKind(kind)
	if parentID.Valid {
		pid := uuid.UUID(parentID.Bytes)
		g.ParentID = &pid
	}

	return g, total, nil
}
