package rules

import "testing"

func TestParseBasicRule(t *testing.T) {
	yaml := `
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
`
	rule, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rule.Version != 1 {
		t.Fatalf("Version = %d, want 1", rule.Version)
	}
	if rule.Input.Format != FormatCSV {
		t.Fatalf("Format = %v, want csv", rule.Input.Format)
	}
	if len(rule.Mappings) != 2 {
		t.Fatalf("len(Mappings) = %d, want 2", len(rule.Mappings))
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	yaml := `
version: 1
input:
  format: json
  json:
    records_path: items
    bogus: true
mappings:
  - target: a
    value: 1
`
	if _, err := Parse([]byte(yaml)); err == nil {
		t.Fatalf("expected an error for unknown field input.json.bogus")
	}
}

func TestExprVariants(t *testing.T) {
	yaml := `
version: 1
input:
  format: json
mappings:
  - target: a
    expr:
      ref: input.x
  - target: b
    expr:
      op: concat
      args:
        - ref: input.x
        - "-"
  - target: c
    value: 42
  - target: d
    expr: {foo: bar, baz: 1}
`
	rule, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if rule.Mappings[0].Expr.Kind != ExprKindRef || rule.Mappings[0].Expr.Ref != "input.x" {
		t.Fatalf("mapping[0].expr = %#v, want Ref(input.x)", rule.Mappings[0].Expr)
	}

	opExpr := rule.Mappings[1].Expr
	if opExpr.Kind != ExprKindOp || opExpr.Op != "concat" || len(opExpr.Args) != 2 {
		t.Fatalf("mapping[1].expr = %#v, want Op(concat, 2 args)", opExpr)
	}

	if v := *rule.Mappings[2].Value; v != int64(42) {
		t.Fatalf("mapping[2].value = %#v, want int64(42)", v)
	}

	// A mapping whose keys don't match ref/op+args/chain exactly falls back
	// to being a literal object, matching the untagged-enum-with-literal-
	// catch-all semantics the reference engine relies on.
	fallback := rule.Mappings[3].Expr
	if fallback.Kind != ExprKindLiteral {
		t.Fatalf("mapping[3].expr.Kind = %v, want Literal", fallback.Kind)
	}
}

func TestExprOpWithNoArgsIsOpNotLiteral(t *testing.T) {
	yaml := `
version: 1
input:
  format: json
mappings:
  - target: a
    expr:
      op: concat
`
	rule, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	expr := rule.Mappings[0].Expr
	if expr.Kind != ExprKindOp || expr.Op != "concat" || len(expr.Args) != 0 {
		t.Fatalf("expr = %#v, want Op(concat, 0 args)", expr)
	}
}

func TestParseChainIsAcceptedButReserved(t *testing.T) {
	yaml := `
version: 1
input:
  format: json
mappings:
  - target: a
    expr:
      chain:
        - ref: input.x
`
	rule, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rule.Mappings[0].Expr.Kind != ExprKindChain {
		t.Fatalf("expr.Kind = %v, want Chain", rule.Mappings[0].Expr.Kind)
	}
}

func TestCSVDefaults(t *testing.T) {
	var csv *CSVInput
	if !csv.HasHeaderOrDefault() {
		t.Fatalf("nil CSVInput should default has_header to true")
	}
	if csv.DelimiterOrDefault() != "," {
		t.Fatalf("nil CSVInput should default delimiter to comma")
	}
}
