// Package rules defines the shape of a rule file: the versioned, declarative
// document that names an input format, an optional record predicate, and an
// ordered list of field mappings. Deserialization lives in load.go; the
// static validator (internal/validate) and the transform driver
// (internal/engine) both operate on the types defined here.
package rules

import "fmt"

// InputFormat is the tagged-union discriminant for InputSpec.
type InputFormat string

const (
	FormatCSV  InputFormat = "csv"
	FormatJSON InputFormat = "json"
)

// Column names one CSV column and, optionally, a type hint reserved for DTO
// generation — the core transformer ignores it entirely.
type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// CSVInput configures CSV parsing. HasHeader defaults to true when the key
// is absent from the rule file; Delimiter defaults to ",".
type CSVInput struct {
	HasHeader *bool    `yaml:"has_header,omitempty"`
	Delimiter string   `yaml:"delimiter,omitempty"`
	Columns   []Column `yaml:"columns,omitempty"`
}

// HasHeaderOrDefault resolves the has_header default (true).
func (c *CSVInput) HasHeaderOrDefault() bool {
	if c == nil || c.HasHeader == nil {
		return true
	}
	return *c.HasHeader
}

// DelimiterOrDefault resolves the delimiter default (",").
func (c *CSVInput) DelimiterOrDefault() string {
	if c == nil || c.Delimiter == "" {
		return ","
	}
	return c.Delimiter
}

// JSONInput configures JSON record extraction.
type JSONInput struct {
	RecordsPath string `yaml:"records_path,omitempty"`
}

// InputSpec is the tagged union on Format.
type InputSpec struct {
	Format InputFormat `yaml:"format"`
	CSV    *CSVInput   `yaml:"csv,omitempty"`
	JSON   *JSONInput  `yaml:"json,omitempty"`
}

// Output currently only carries the DTO generator's default type name.
type Output struct {
	Name string `yaml:"name,omitempty"`
}

// Mapping derives one output field. Exactly one of Source, Value, or Expr
// must be set; the validator enforces that, the model itself merely carries
// presence.
type Mapping struct {
	Target   string `yaml:"target"`
	Source   string `yaml:"source,omitempty"`
	Value    *any   `yaml:"value,omitempty"`
	Expr     *Expr  `yaml:"expr,omitempty"`
	When     *Expr  `yaml:"when,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Required bool   `yaml:"required,omitempty"`
	Default  *any   `yaml:"default,omitempty"`
}

// ExprKind discriminates the four Expr variants.
type ExprKind int

const (
	ExprKindLiteral ExprKind = iota
	ExprKindRef
	ExprKindOp
	ExprKindChain
)

// Expr is the recursive expression tree: Ref, Op, Chain (reserved, never
// evaluated — see SPEC_FULL.md §9), or a catch-all Literal. Custom
// unmarshaling (load.go) decides the variant from the YAML mapping's key
// set, falling back to Literal exactly the way an untagged enum with
// deny-unknown-fields variants would: a shape that almost-but-not-quite
// matches Ref/Op/Chain (extra keys, wrong value types) is just a literal
// object instead of a parse error.
type Expr struct {
	Kind    ExprKind
	Ref     string
	Op      string
	Args    []Expr
	Chain   []Expr
	Literal any
}

func (e Expr) String() string {
	switch e.Kind {
	case ExprKindRef:
		return fmt.Sprintf("ref(%s)", e.Ref)
	case ExprKindOp:
		return fmt.Sprintf("op(%s, %d args)", e.Op, len(e.Args))
	case ExprKindChain:
		return fmt.Sprintf("chain(%d steps)", len(e.Chain))
	default:
		return fmt.Sprintf("literal(%#v)", e.Literal)
	}
}

// RuleFile is the top-level document.
type RuleFile struct {
	Version    int       `yaml:"version"`
	Input      InputSpec `yaml:"input"`
	Output     *Output   `yaml:"output,omitempty"`
	RecordWhen *Expr     `yaml:"record_when,omitempty"`
	Mappings   []Mapping `yaml:"mappings"`
}
