// Package adapter implements the §4.7 record adapters: CSV and JSON readers
// that turn a raw input file into the []map[string]any record list the
// transform driver consumes, plus the JSON result writer. It is grounded in
// the teacher codebase's internal/io readers (CSVReader/JSONReader), stripped
// of the teacher's multi-format factory and output-format fan-out — this
// system only ever emits JSON — and of type inference, since §4.7 makes
// every CSV cell a raw string and leaves casting to the mapping's own
// `type`.
package adapter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"transform-rules/internal/logging"
)

// ReadCSV parses path with the given delimiter (a single rune; "," if
// empty). If hasHeader, the first row names the columns; otherwise columns
// supplies the names in order (§4.7). An empty file, or a headerless file
// with zero data rows, yields an empty (non-nil) record list.
func ReadCSV(path string, delimiter string, hasHeader bool, columns []string) ([]map[string]any, error) {
	delim := ','
	if delimiter != "" {
		if utf8.RuneCountInString(delimiter) != 1 {
			return nil, fmt.Errorf("adapter: CSV delimiter %q must be a single character", delimiter)
		}
		delim = []rune(delimiter)[0]
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("adapter: failed to open CSV file %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = delim
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("adapter: failed to read CSV rows from %q: %w", path, err)
	}

	records := make([]map[string]any, 0)
	if len(rows) == 0 {
		logging.Logf(logging.Debug, "adapter: CSV file %q is empty", path)
		return records, nil
	}

	var headers []string
	dataRows := rows
	if hasHeader {
		headers = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			headers[i] = strings.TrimSpace(h)
		}
		dataRows = rows[1:]
	} else {
		headers = columns
	}

	if len(headers) == 0 {
		logging.Logf(logging.Debug, "adapter: CSV file %q has no columns to name; returning no records", path)
		return records, nil
	}

	for rowNum, row := range dataRows {
		rec := make(map[string]any, len(headers))
		for i, name := range headers {
			if name == "" {
				continue
			}
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		if len(row) != len(headers) {
			logging.Logf(logging.Warning, "adapter: CSV row %d in %q has %d fields, expected %d", rowNum+1, path, len(row), len(headers))
		}
		records = append(records, rec)
	}

	logging.Logf(logging.Debug, "adapter: loaded %d CSV records from %q", len(records), path)
	return records, nil
}
