package importer

import (
	"fmt"
	"strings"

	"github.com/SzymonPisula/ceremoday/internal/domain"
)

// Column names of the import template. The downloadable template artifact
// must use exactly these names, in this order, for the header gate to
// recognize the file.
const (
	ColType      = "Type"
	ColFirstName = "FirstName"
	ColLastName  = "LastName"
	ColPhone     = "Phone"
	ColEmail     = "Email"
	ColRelation  = "Relation"
	ColSide      = "Side"
	ColRSVP      = "RSVP"
	ColAllergens = "Allergens"
	ColNotes     = "Notes"
	ColParentKey = "ParentKey"
)

// Columns is the template header row in canonical order.
var Columns = []string{
	ColType, ColFirstName, ColLastName, ColPhone, ColEmail,
	ColRelation, ColSide, ColRSVP, ColAllergens, ColNotes, ColParentKey,
}

// requiredColumns gate the whole batch: if any is missing from the header
// the file is rejected without per-row processing.
var requiredColumns = []string{ColType, ColFirstName, ColLastName}

// Row is one spreadsheet data row keyed by column header. Cell values are
// loosely typed — the upstream reader may yield strings, numbers, or nil for
// blank cells; the normalizers cope with all of them.
type Row map[string]any

// Pipeline runs the import transform with a fixed vocabulary.
type Pipeline struct {
	vocab *Vocabulary
}

// New constructs a Pipeline around the given vocabulary. Pass
// DefaultVocabulary() unless a test needs a custom one.
func New(v *Vocabulary) *Pipeline {
	return &Pipeline{vocab: v}
}

// Run executes the full pipeline over the ordered data rows. header is the
// column name set actually present in the file. The returned result is
// self-contained: items ready to persist, blocking errors, and non-blocking
// warnings, each attributed to a 1-based spreadsheet row (header = row 1).
func (p *Pipeline) Run(header []string, rows []Row) domain.ImportResult {
	var res domain.ImportResult

	cols, missing := mapHeader(header)
	if len(missing) > 0 {
		for _, m := range missing {
			res.Errors = append(res.Errors, domain.ImportIssue{
				Row:     1,
				Message: fmt.Sprintf("required column %q is missing from the header", m),
			})
		}
		res.Items = []domain.ImportItem{}
		return res
	}

	items, errs := p.classifyRows(cols, rows)
	res.Errors = append(res.Errors, errs...)

	items, dupErrs := dedupe(items)
	res.Errors = append(res.Errors, dupErrs...)

	res.Errors = append(res.Errors, resolveParents(items)...)
	res.Warnings = contactWarnings(items)

	res.Items = items
	if res.Items == nil {
		res.Items = []domain.ImportItem{}
	}
	for _, it := range items {
		switch it.Kind {
		case domain.KindGuest:
			res.GuestCount++
		case domain.KindSubguest:
			res.SubguestCount++
		}
	}
	return res
}

// columnKeys maps each canonical column name to the header key actually
// present in the file, so cell lookups tolerate header casing differences.
type columnKeys map[string]string

// cell fetches the raw value of a canonical column from a row, or nil when
// the column (or the cell) is absent.
func (c columnKeys) cell(row Row, col string) any {
	key, ok := c[col]
	if !ok {
		return nil
	}
	return row[key]
}

// mapHeader matches the canonical column names against the header keys
// (case-insensitive, trimmed) and reports which required columns are absent.
func mapHeader(header []string) (columnKeys, []string) {
	byFold := make(map[string]string, len(header))
	for _, h := range header {
		byFold[strings.ToLower(strings.TrimSpace(h))] = h
	}

	cols := make(columnKeys, len(Columns))
	for _, c := range Columns {
		if key, ok := byFold[strings.ToLower(c)]; ok {
			cols[c] = key
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	return cols, missing
}

// classifyRows is the per-row phase: classification, required fields,
// contact validation, vocabulary validation. A row that produces any error
// is skipped; blank separator rows are skipped silently.
//
// Row number = data index + 2: the header is row 1 and row numbers are
// 1-based, so the first data row is row 2.
func (p *Pipeline) classifyRows(cols columnKeys, rows []Row) ([]domain.ImportItem, []domain.ImportIssue) {
	var (
		items []domain.ImportItem
		errs  []domain.ImportIssue
	)

	for i, row := range rows {
		rn := i + 2

		rawType := CellString(cols.cell(row, ColType))
		first := CellString(cols.cell(row, ColFirstName))
		last := CellString(cols.cell(row, ColLastName))

		// Blank separator row.
		if rawType == "" && first == "" && last == "" {
			continue
		}

		rowErr := func(format string, args ...any) {
			errs = append(errs, domain.ImportIssue{Row: rn, Message: fmt.Sprintf(format, args...)})
		}

		kind, ok := p.vocab.Kind(rawType)
		if !ok {
			if rawType == "" {
				rowErr("Type is required")
			} else {
				rowErr("unrecognized Type %q (use \"guest\" or \"sub-guest\")", rawType)
			}
			continue
		}

		item := domain.ImportItem{Kind: kind, Row: rn}

		failed := false
		if first == "" {
			rowErr("FirstName is required")
			failed = true
		}
		if last == "" {
			rowErr("LastName is required")
			failed = true
		}
		item.FirstName = first
		item.LastName = last

		// Contact fields carry information only for guests. Sub-guests have
		// no independent contact fields: whatever the raw row contains is
		// discarded unvalidated.
		if kind == domain.KindGuest {
			if email := p.vocab.NormalizeOptional(cols.cell(row, ColEmail)); email != "" && email != NoData {
				if !IsEmailShape(email) {
					rowErr("invalid Email %q", email)
					failed = true
				} else {
					item.Email = email
				}
			}
			if phone := p.vocab.NormalizeOptional(cols.cell(row, ColPhone)); phone != "" && phone != NoData {
				if !IsPhoneShape(phone) {
					rowErr("invalid Phone %q (expected %d-%d digits)", phone, minPhoneDigits, maxPhoneDigits)
					failed = true
				} else {
					item.Phone = p.vocab.NormalizePhone(phone)
				}
			}
		}

		var vocabErr bool
		item.Relation, vocabErr = p.lookupField(rowErr, p.vocab.relation, ColRelation, cols.cell(row, ColRelation))
		failed = failed || vocabErr
		item.Side, vocabErr = p.lookupField(rowErr, p.vocab.side, ColSide, cols.cell(row, ColSide))
		failed = failed || vocabErr
		item.RSVP, vocabErr = p.lookupField(rowErr, p.vocab.rsvp, ColRSVP, cols.cell(row, ColRSVP))
		failed = failed || vocabErr

		if kind == domain.KindSubguest {
			parent := CellString(cols.cell(row, ColParentKey))
			if parent == "" {
				rowErr("ParentKey is required for a sub-guest")
				failed = true
			}
			// Stored verbatim: it is later compared against a guest's
			// displayed "FirstName LastName".
			item.ParentKey = parent
		}

		item.Allergens = p.vocab.NormalizeOptional(cols.cell(row, ColAllergens))
		item.Notes = p.vocab.NormalizeOptional(cols.cell(row, ColNotes))

		if !failed {
			items = append(items, item)
		}
	}

	return items, errs
}

// lookupField normalizes one vocabulary-backed cell. Absent stays absent and
// a blank marker becomes NoData; any other value must resolve through the
// lookup or the row is rejected with a message listing the allowed values.
func (p *Pipeline) lookupField(rowErr func(string, ...any), l Lookup, col string, cell any) (string, bool) {
	s := p.vocab.NormalizeOptional(cell)
	if s == "" || s == NoData {
		return s, false
	}
	canonical, ok := l.Find(s)
	if !ok {
		rowErr("invalid %s %q (allowed: %s)", col, s, strings.Join(l.Canonical(), ", "))
		return "", true
	}
	return canonical, false
}

// dedupe flags repeated records within the file. Identity is the composite
// key kind|first|last|phone|email|parentKey, all lowercased. Items are
// processed in original order and the first occurrence of a key wins; every
// later occurrence is excluded and reported against its own row. Nothing is
// ever merged.
func dedupe(items []domain.ImportItem) ([]domain.ImportItem, []domain.ImportIssue) {
	seen := make(map[string]struct{}, len(items))
	kept := items[:0:0]
	var errs []domain.ImportIssue

	for _, it := range items {
		key := strings.Join([]string{
			string(it.Kind),
			foldName(it.FirstName),
			foldName(it.LastName),
			strings.ToLower(it.Phone),
			strings.ToLower(it.Email),
			foldName(it.ParentKey),
		}, "|")

		if _, dup := seen[key]; dup {
			errs = append(errs, domain.ImportIssue{Row: it.Row, Message: "duplicate record in file"})
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, it)
	}
	return kept, errs
}

// resolveParents verifies every sub-guest's ParentKey names some guest in
// the same batch. The match is case-insensitive and whitespace-collapsed.
// An unresolved reference is reported but the item is NOT removed — the
// aggregate error count blocks the import at the caller level.
func resolveParents(items []domain.ImportItem) []domain.ImportIssue {
	guests := make(map[string]struct{})
	for _, it := range items {
		if it.Kind == domain.KindGuest {
			guests[foldName(it.FirstName+" "+it.LastName)] = struct{}{}
		}
	}

	var errs []domain.ImportIssue
	for _, it := range items {
		if it.Kind != domain.KindSubguest {
			continue
		}
		if _, ok := guests[foldName(it.ParentKey)]; !ok {
			errs = append(errs, domain.ImportIssue{
				Row:     it.Row,
				Message: fmt.Sprintf("no guest named %q in this file", it.ParentKey),
			})
		}
	}
	return errs
}

// contactWarnings emits one non-blocking warning per guest that has neither
// phone nor email. Sub-guests never warn — they have no contact fields.
func contactWarnings(items []domain.ImportItem) []domain.ImportIssue {
	var warns []domain.ImportIssue
	for _, it := range items {
		if it.Kind == domain.KindGuest && it.Phone == "" && it.Email == "" {
			warns = append(warns, domain.ImportIssue{
				Row:     it.Row,
				Message: fmt.Sprintf("guest %s %s has neither phone nor email", it.FirstName, it.LastName),
			})
		}
	}
	return warns
}
