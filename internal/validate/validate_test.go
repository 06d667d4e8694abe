package validate

import (
	"testing"

	"transform-rules/internal/rules"
)

func mustParse(t *testing.T, yaml string) *rules.RuleFile {
	t.Helper()
	rule, err := rules.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return rule
}

func codes(errs []*Error) []Code {
	out := make([]Code, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateAcceptsWellFormedRule(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: csv
  csv:
    delimiter: ","
mappings:
  - target: name
    source: name
  - target: age
    source: age
    type: int
`)
	if errs := Validate(rule); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestInvalidVersion(t *testing.T) {
	rule := mustParse(t, `
version: 2
input:
  format: json
  json: {}
mappings:
  - target: a
    value: 1
`)
	errs := Validate(rule)
	if len(errs) != 1 || errs[0].Code != InvalidVersion {
		t.Fatalf("errs = %v, want single InvalidVersion", errs)
	}
}

func TestMissingCsvSection(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: csv
mappings:
  - target: a
    value: 1
`)
	errs := Validate(rule)
	found := false
	for _, e := range errs {
		if e.Code == MissingCsvSection {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected MissingCsvSection, got %v", codes(errs))
	}
}

func TestDuplicateTarget(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
  json: {}
mappings:
  - target: name
    value: "a"
  - target: name
    value: "b"
`)
	errs := Validate(rule)
	if len(errs) != 1 || errs[0].Code != DuplicateTarget || errs[0].Path != "mappings[1].target" {
		t.Fatalf("errs = %v, want single DuplicateTarget at mappings[1].target", errs)
	}
}

func TestDuplicateTargetDoesNotCollideAcrossQuotedKeyBoundary(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
mappings:
  - target: a.b.c
    value: 1
  - target: a["b.c"]
    value: 2
`)
	errs := Validate(rule)
	for _, e := range errs {
		if e.Code == DuplicateTarget {
			t.Fatalf("errs = %v, want no DuplicateTarget: a.b.c and a[\"b.c\"] name different locations", errs)
		}
	}
}

func TestForwardOutReferenceRejected(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
mappings:
  - target: a.c
    source: out.a.b
  - target: a.b
    value: 1
`)
	errs := Validate(rule)
	found := false
	for _, e := range errs {
		if e.Code == ForwardOutReference {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ForwardOutReference, got %v", codes(errs))
	}
}

func TestOutReferenceToEarlierMappingAccepted(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
  json: {}
mappings:
  - target: a.b
    value: 1
  - target: a.c
    source: out.a.b
`)
	if errs := Validate(rule); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestMissingMappingValueAndExclusive(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
  json: {}
mappings:
  - target: a
  - target: b
    value: 1
    source: input.x
`)
	errs := Validate(rule)
	if len(errs) != 2 {
		t.Fatalf("errs = %v, want exactly 2", errs)
	}
	if errs[0].Code != MissingMappingValue {
		t.Fatalf("errs[0].Code = %v, want MissingMappingValue", errs[0].Code)
	}
	if errs[1].Code != SourceValueExprExclusive {
		t.Fatalf("errs[1].Code = %v, want SourceValueExprExclusive", errs[1].Code)
	}
}

func TestTargetWithIndexRejected(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
  json: {}
mappings:
  - target: "a[0]"
    value: 1
`)
	errs := Validate(rule)
	if len(errs) != 1 || errs[0].Code != InvalidPath {
		t.Fatalf("errs = %v, want single InvalidPath", errs)
	}
}

func TestLookupArity(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
mappings:
  - target: a
    expr:
      op: lookup_first
      args:
        - ref: context.items
        - "id"
`)
	errs := Validate(rule)
	found := false
	for _, e := range errs {
		if e.Code == InvalidArgs {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected InvalidArgs for lookup arity, got %v", codes(errs))
	}
}

func TestUnknownOp(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
  json: {}
mappings:
  - target: a
    expr:
      op: reverse
      args:
        - ref: input.x
`)
	errs := Validate(rule)
	if len(errs) != 1 || errs[0].Code != UnknownOp {
		t.Fatalf("errs = %v, want single UnknownOp", errs)
	}
}

func TestOpWithNoArgsIsInvalidArgs(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
  json: {}
mappings:
  - target: a
    expr:
      op: concat
`)
	errs := Validate(rule)
	if len(errs) != 1 || errs[0].Code != InvalidArgs {
		t.Fatalf("errs = %v, want single InvalidArgs", errs)
	}
}

func TestDelimiterLength(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: csv
  csv:
    delimiter: "::"
mappings:
  - target: a
    value: 1
`)
	errs := Validate(rule)
	if len(errs) != 1 || errs[0].Code != InvalidDelimiterLength {
		t.Fatalf("errs = %v, want single InvalidDelimiterLength", errs)
	}
}

func TestChainIsRejectedAtValidation(t *testing.T) {
	rule := mustParse(t, `
version: 1
input:
  format: json
  json: {}
mappings:
  - target: a
    expr:
      chain:
        - ref: input.x
`)
	errs := Validate(rule)
	if len(errs) != 1 || errs[0].Code != InvalidExprShape {
		t.Fatalf("errs = %v, want single InvalidExprShape", errs)
	}
}

func TestValidateWithSourceAttachesLocation(t *testing.T) {
	source := `version: 2
input:
  format: json
  json: {}
mappings:
  - target: a
    value: 1
`
	rule := mustParse(t, source)
	errs := ValidateWithSource(rule, source)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want single error", errs)
	}
	if !errs[0].HasLoc || errs[0].Line != 1 {
		t.Fatalf("errs[0] = %+v, want location at line 1", errs[0])
	}
}
