package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Field normalizers are total: they never fail on malformed input, they
// degrade it to the empty string (absent) instead. Deciding whether a
// present-but-malformed value is a hard error is the row validator's job.

// phone digit count limits follow E.164 loosely: anything from a short local
// number up to a full international number is accepted.
const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// emailShape is a deliberately loose local@domain.tld check. Full RFC 5322
// validation rejects addresses people actually use; the persistence layer
// does not need more than this.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CellString converts an arbitrary spreadsheet cell value to a trimmed
// string. Absent cells (nil) become the empty string; numeric cells are
// rendered without a trailing ".0" so "42" survives a float round-trip
// through the spreadsheet reader.
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(c), 'f', -1, 32)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case bool:
		return strconv.FormatBool(c)
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}

// NormalizeOptional converts a cell to an optional string: absent stays
// absent (""), a recognized blank marker becomes the canonical NoData value,
// anything else is returned trimmed and unchanged.
func (v *Vocabulary) NormalizeOptional(cell any) string {
	s := CellString(cell)
	if s == "" {
		return ""
	}
	if v.IsBlankMarker(s) {
		return NoData
	}
	return s
}

// NormalizePhone converts a cell to the canonical phone form: every
// character except digits and a single leading "+" is stripped. Empty cells,
// blank markers, and numbers with a digit count outside [7,15] all normalize
// to absent — the phone is dropped here, not rejected.
func (v *Vocabulary) NormalizePhone(cell any) string {
	s := CellString(cell)
	if s == "" || v.IsBlankMarker(s) {
		return ""
	}

	var b strings.Builder
	if strings.HasPrefix(s, "+") {
		b.WriteByte('+')
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			digits++
		}
	}
	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return ""
	}
	return b.String()
}

// IsEmailShape reports whether s looks like local@domain.tld.
func IsEmailShape(s string) bool {
	return emailShape.MatchString(s)
}

// IsPhoneShape reports whether s is an acceptable phone value. Phone is
// optional, so the empty string is always valid; a non-empty value is valid
// iff its digit count (ignoring a leading "+" and separator characters) is
// within [7,15].
func IsPhoneShape(s string) bool {
	if s == "" {
		return true
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

var spaceRun = regexp.MustCompile(`\s+`)

// foldName lowercases and collapses interior whitespace. It is the equality
// used both for the duplicate composite key and for matching a sub-guest's
// parent key against guest names.
func foldName(s string) string {
	return spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}
