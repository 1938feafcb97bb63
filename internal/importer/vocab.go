// Package importer implements the bulk guest import pipeline: it takes the
// loosely typed rows produced by a spreadsheet reader, normalizes and
// validates them against controlled vocabularies, detects in-file duplicates,
// resolves sub-guest parent references, and produces a typed batch together
// with a full diagnostic report.
//
// The whole pipeline is a pure, single-pass, order-preserving transform with
// no I/O; the only collaborator that touches bytes is the ReadCSV adapter.
package importer

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/SzymonPisula/ceremoday/internal/domain"
)

// NoData is the canonical value a recognized blank marker ("n/a", "brak
// danych", ...) normalizes to. It is distinct from the empty string, which
// means the cell was truly absent.
const NoData = "no data"

//go:embed vocab.yaml
var vocabYAML []byte

// vocabFile mirrors the structure of vocab.yaml.
type vocabFile struct {
	Kind     map[string][]string `yaml:"kind"`
	Relation vocabDomain         `yaml:"relation"`
	Side     vocabDomain         `yaml:"side"`
	RSVP     vocabDomain         `yaml:"rsvp"`
	Blank    []string            `yaml:"blank"`
}

type vocabDomain struct {
	Canonical []string            `yaml:"canonical"`
	Aliases   map[string][]string `yaml:"aliases"`
}

// Lookup is a read-only alias → canonical mapping for one vocabulary domain.
// Unmapped input is reported as not found, never silently coerced.
type Lookup struct {
	canonical []string
	aliases   map[string]string
}

// Find returns the canonical value for alias (case-insensitive, trimmed).
func (l Lookup) Find(alias string) (string, bool) {
	v, ok := l.aliases[strings.ToLower(strings.TrimSpace(alias))]
	return v, ok
}

// Canonical returns the canonical values in display order, for use in
// "value must be one of: ..." error messages.
func (l Lookup) Canonical() []string {
	return l.canonical
}

// Vocabulary bundles the controlled vocabularies used by the pipeline.
// It is immutable after construction and safe for concurrent use.
type Vocabulary struct {
	relation Lookup
	side     Lookup
	rsvp     Lookup
	kinds    map[string]domain.GuestKind
	blanks   map[string]struct{}
}

// Relation returns the relation vocabulary lookup.
func (v *Vocabulary) Relation() Lookup { return v.relation }

// Side returns the side vocabulary lookup.
func (v *Vocabulary) Side() Lookup { return v.side }

// RSVP returns the RSVP vocabulary lookup.
func (v *Vocabulary) RSVP() Lookup { return v.rsvp }

// Kind classifies a raw Type cell value into a GuestKind.
func (v *Vocabulary) Kind(raw string) (domain.GuestKind, bool) {
	k, ok := v.kinds[strings.ToLower(strings.TrimSpace(raw))]
	return k, ok
}

// IsBlankMarker reports whether s is a recognized "no data" phrase.
func (v *Vocabulary) IsBlankMarker(s string) bool {
	_, ok := v.blanks[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

var defaultVocab = sync.OnceValue(func() *Vocabulary {
	v, err := parseVocabulary(vocabYAML)
	if err != nil {
		// The YAML is embedded at compile time; a parse failure is a build
		// defect, not a runtime condition.
		panic("importer: embedded vocab.yaml is invalid: " + err.Error())
	}
	return v
})

// DefaultVocabulary returns the vocabulary parsed from the embedded
// vocab.yaml. The result is shared and immutable.
func DefaultVocabulary() *Vocabulary {
	return defaultVocab()
}

// parseVocabulary decodes raw YAML into an immutable Vocabulary.
func parseVocabulary(raw []byte) (*Vocabulary, error) {
	var f vocabFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("importer.parseVocabulary: %w", err)
	}

	v := &Vocabulary{
		kinds:  make(map[string]domain.GuestKind),
		blanks: make(map[string]struct{}, len(f.Blank)),
	}

	for kind, aliases := range f.Kind {
		gk := domain.GuestKind(kind)
		if !gk.Valid() {
			return nil, fmt.Errorf("importer.parseVocabulary: unknown kind %q", kind)
		}
		for _, a := range aliases {
			v.kinds[strings.ToLower(a)] = gk
		}
	}

	var err error
	if v.relation, err = buildLookup("relation", f.Relation); err != nil {
		return nil, err
	}
	if v.side, err = buildLookup("side", f.Side); err != nil {
		return nil, err
	}
	if v.rsvp, err = buildLookup("rsvp", f.RSVP); err != nil {
		return nil, err
	}

	for _, b := range f.Blank {
		v.blanks[strings.ToLower(b)] = struct{}{}
	}

	return v, nil
}

// buildLookup flattens one YAML domain into a Lookup. Every canonical value
// maps to itself; every alias must belong to a declared canonical value.
func buildLookup(name string, d vocabDomain) (Lookup, error) {
	l := Lookup{
		canonical: d.Canonical,
		aliases:   make(map[string]string),
	}
	known := make(map[string]struct{}, len(d.Canonical))
	for _, c := range d.Canonical {
		known[c] = struct{}{}
		l.aliases[strings.ToLower(c)] = c
	}
	for canonical, aliases := range d.Aliases {
		if _, ok := known[canonical]; !ok {
			return Lookup{}, fmt.Errorf("importer.buildLookup: %s alias group %q has no canonical value", name, canonical)
		}
		for _, a := range aliases {
			l.aliases[strings.ToLower(a)] = canonical
		}
	}
	return l, nil
}
