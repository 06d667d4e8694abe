package locator

import "testing"

func TestLocationFor(t *testing.T) {
	source := `version: 1
input:
  format: csv
  csv:
    delimiter: ","
mappings:
  - target: name
    source: name
  - target: age
    expr:
      op: concat
      args:
        - ref: input.age
`
	l := FromString(source)

	tests := []struct {
		path       string
		wantLine   int
		wantColumn int
		found      bool
	}{
		{path: "version", wantLine: 1, wantColumn: 1, found: true},
		{path: "input.format", wantLine: 3, wantColumn: 3, found: true},
		{path: "input.csv.delimiter", wantLine: 5, wantColumn: 5, found: true},
		{path: "mappings[0].target", wantLine: 7, wantColumn: 5, found: true},
		{path: "mappings[1].expr.op", wantLine: 11, wantColumn: 7, found: true},
		{path: "mappings[1].expr.args[0]", found: true},
		{path: "does.not.exist", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			loc, ok := l.LocationFor(tt.path)
			if ok != tt.found {
				t.Fatalf("LocationFor(%q) found = %v, want %v", tt.path, ok, tt.found)
			}
			if !tt.found {
				return
			}
			if tt.wantLine != 0 && loc.Line != tt.wantLine {
				t.Fatalf("LocationFor(%q).Line = %d, want %d", tt.path, loc.Line, tt.wantLine)
			}
			if tt.wantColumn != 0 && loc.Column != tt.wantColumn {
				t.Fatalf("LocationFor(%q).Column = %d, want %d", tt.path, loc.Column, tt.wantColumn)
			}
		})
	}
}

func TestLocationForMissingBestEffort(t *testing.T) {
	l := FromString("version: 1\n")
	if _, ok := l.LocationFor("nonexistent.path"); ok {
		t.Fatalf("expected no location for an unscanned path")
	}
}
