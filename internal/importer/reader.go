package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// reader.go adapts a CSV stream to the Row sequence the pipeline consumes.
// Parsing the file is the only part of the import path that can hard-fail;
// everything downstream degrades malformed input to diagnostics instead.

// ErrEmptyFile is returned by ReadCSV when the file contains no rows with
// any non-blank cell, i.e. there is nothing that could serve as a header.
var ErrEmptyFile = errors.New("file contains no data")

// ReadCSV decodes a CSV stream into a header plus ordered data rows.
//
// The header is the first record that has any non-blank cell; records before
// it are ignored. Ragged records are tolerated: cells beyond the header width
// are dropped, missing trailing cells are simply absent from the Row. A UTF-8
// BOM on the first cell is stripped, since spreadsheet exports routinely
// carry one.
func ReadCSV(r io.Reader) ([]string, []Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		header []string
		rows   []Row
		first  = true
	)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("importer.ReadCSV: %w", err)
		}
		if first {
			if len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\uFEFF")
			}
			first = false
		}

		if header == nil {
			if !blankRecord(record) {
				header = record
			}
			continue
		}

		row := make(Row, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		rows = append(rows, row)
	}

	if header == nil {
		return nil, nil, fmt.Errorf("importer.ReadCSV: %w", ErrEmptyFile)
	}
	return header, rows, nil
}

// blankRecord reports whether every cell of the record is empty after trimming.
func blankRecord(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// TemplateCSV returns the downloadable blank import template: exactly the
// canonical header row. Column order and names must match the pipeline's
// required-columns gate, so this is generated from Columns rather than kept
// as a separate static file that could drift.
func TemplateCSV() []byte {
	return []byte(strings.Join(Columns, ",") + "\n")
}
