package adapter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"transform-rules/internal/logging"
)

// ReadXLSX implements §4.7a: the first worksheet (or sheetName if given) is
// read as a header-plus-rows grid, exactly like ReadCSV with hasHeader
// true, and converted into the same record shape the JSON adapter
// produces. It is the CLI's convenience path into the core engine, which
// never sees XLSX as a format of its own — grounded in the teacher's
// XLSXReader, with the sheet-index option dropped (the CLI only ever names
// a sheet or takes the default) and the header/record-building logic
// shared with ReadCSV's conventions.
func ReadXLSX(filePath, sheetName string) ([]map[string]any, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("adapter: failed to open XLSX file %q: %w", filePath, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Logf(logging.Error, "adapter: failed to close XLSX file %q: %v", filePath, cerr)
		}
	}()

	target := sheetName
	if target == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("adapter: XLSX file %q contains no sheets", filePath)
		}
		target = sheets[0]
	}

	rows, err := f.GetRows(target)
	if err != nil {
		return nil, fmt.Errorf("adapter: failed to read sheet %q in %q: %w", target, filePath, err)
	}

	records := make([]map[string]any, 0)
	if len(rows) == 0 {
		logging.Logf(logging.Debug, "adapter: XLSX sheet %q in %q is empty", target, filePath)
		return records, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	for _, row := range rows[1:] {
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
		records = append(records, rec)
	}

	logging.Logf(logging.Debug, "adapter: loaded %d XLSX records from sheet %q in %q", len(records), target, filePath)
	return records, nil
}
