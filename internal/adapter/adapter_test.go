package adapter

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return p
}

func TestReadCSVWithHeader(t *testing.T) {
	p := writeTemp(t, "in.csv", "name,age\nAda,36\nBob,40\n")
	records, err := ReadCSV(p, "", true, nil)
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	want := []map[string]any{
		{"name": "Ada", "age": "36"},
		{"name": "Bob", "age": "40"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records = %#v, want %#v", records, want)
	}
}

func TestReadCSVHeaderlessUsesColumns(t *testing.T) {
	p := writeTemp(t, "in.csv", "Ada,36\nBob,40\n")
	records, err := ReadCSV(p, "", false, []string{"name", "age"})
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if len(records) != 2 || records[0]["name"] != "Ada" {
		t.Fatalf("records = %#v", records)
	}
}

func TestReadCSVEmptyFileYieldsEmptyList(t *testing.T) {
	p := writeTemp(t, "in.csv", "")
	records, err := ReadCSV(p, "", true, nil)
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %#v, want empty", records)
	}
}

func TestReadCSVCustomDelimiter(t *testing.T) {
	p := writeTemp(t, "in.csv", "name;age\nAda;36\n")
	records, err := ReadCSV(p, ";", true, nil)
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if records[0]["age"] != "36" {
		t.Fatalf("records = %#v", records)
	}
}

func TestReadJSONArray(t *testing.T) {
	p := writeTemp(t, "in.json", `[{"name":"Ada"},{"name":"Bob"}]`)
	records, err := ReadJSON(p, "")
	if err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %#v", records)
	}
}

func TestReadJSONSingleObjectBecomesOneRecord(t *testing.T) {
	p := writeTemp(t, "in.json", `{"name":"Ada"}`)
	records, err := ReadJSON(p, "")
	if err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	if len(records) != 1 || records[0]["name"] != "Ada" {
		t.Fatalf("records = %#v", records)
	}
}

func TestReadJSONRecordsPath(t *testing.T) {
	p := writeTemp(t, "in.json", `{"data":{"items":[{"id":1},{"id":2}]}}`)
	records, err := ReadJSON(p, "data.items")
	if err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %#v", records)
	}
}

func TestReadJSONMissingRecordsPathFails(t *testing.T) {
	p := writeTemp(t, "in.json", `{"data":{}}`)
	if _, err := ReadJSON(p, "data.missing"); err == nil {
		t.Fatal("expected an error for a missing records_path")
	}
}

func TestReadJSONScalarIsInvalidInput(t *testing.T) {
	p := writeTemp(t, "in.json", `"just a string"`)
	if _, err := ReadJSON(p, ""); err == nil {
		t.Fatal("expected InvalidInput for a bare scalar document")
	}
}
