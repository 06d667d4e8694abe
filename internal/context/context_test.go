package context

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "context.json")
	if err := os.WriteFile(p, []byte(`{"rates":{"usd":1.0}}`), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	doc, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	want := map[string]any{"rates": map[string]any{"usd": float64(1)}}
	if !reflect.DeepEqual(doc, want) {
		t.Fatalf("doc = %#v, want %#v", doc, want)
	}
}

func TestSplitPostgresSpec(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantOK    bool
		wantDSN   string
		wantQuery string
	}{
		{
			name:      "postgres with query",
			spec:      "postgres://user@host/db#select row_to_json(t) from accounts t",
			wantOK:    true,
			wantDSN:   "postgres://user@host/db",
			wantQuery: "select row_to_json(t) from accounts t",
		},
		{
			name:   "local file path is not postgres",
			spec:   "/tmp/context.json",
			wantOK: false,
		},
		{
			name:   "postgres dsn with no query fragment",
			spec:   "postgres://user@host/db",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, query, ok := splitPostgresSpec(tt.spec)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if dsn != tt.wantDSN || query != tt.wantQuery {
				t.Fatalf("dsn=%q query=%q, want dsn=%q query=%q", dsn, query, tt.wantDSN, tt.wantQuery)
			}
		})
	}
}

func TestLoadFromPostgresRequiresQuery(t *testing.T) {
	if _, err := loadFromPostgres("postgres://user@host/db", ""); err == nil {
		t.Fatal("expected an error for an empty query")
	}
}
