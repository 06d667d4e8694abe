package adapter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"transform-rules/internal/jsonval"
	"transform-rules/internal/logging"
	"transform-rules/internal/path"
	"transform-rules/internal/rterr"
)

// ReadJSON parses path as one JSON value (§4.7). If recordsPath is
// non-empty, it is resolved against the decoded document first; a missing
// path is *InvalidRecordsPath*. The resolved (or whole) value is then
// coerced to a record list: an array passes through, a single object
// becomes a one-element list, anything else is *InvalidInput*.
func ReadJSON(filePath, recordsPath string) ([]map[string]any, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("adapter: failed to read JSON file %q: %w", filePath, err)
	}

	doc, err := jsonval.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("adapter: failed to parse JSON from %q: %w", filePath, err)
	}

	target := doc
	if recordsPath != "" {
		tokens, perr := path.Parse(recordsPath)
		if perr != nil {
			return nil, rterr.Newf(rterr.InvalidRecordsPath, "records_path %q is invalid: %v", recordsPath, perr)
		}
		v, found := path.Get(doc, tokens)
		if !found {
			return nil, rterr.Newf(rterr.InvalidRecordsPath, "records_path %q did not resolve in %q", recordsPath, filePath)
		}
		target = v
	}

	return coerceRecords(target, filePath)
}

func coerceRecords(v any, filePath string) ([]map[string]any, error) {
	switch t := v.(type) {
	case []any:
		records := make([]map[string]any, 0, len(t))
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, rterr.Newf(rterr.InvalidInput, "record %d in %q is not an object", i, filePath)
			}
			records = append(records, m)
		}
		logging.Logf(logging.Debug, "adapter: loaded %d JSON records from %q", len(records), filePath)
		return records, nil
	case map[string]any:
		return []map[string]any{t}, nil
	default:
		return nil, rterr.Newf(rterr.InvalidInput, "JSON value in %q is neither an array nor an object", filePath)
	}
}

// WriteJSON marshals records as an indented JSON array to w, used by the CLI
// for both file output and stdout.
func WriteJSON(w io.Writer, records []map[string]any) error {
	out := records
	if out == nil {
		out = []map[string]any{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("adapter: failed to marshal output: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("adapter: failed to write output: %w", err)
	}
	return nil
}
