// Package validate implements the single-pass static validator: it collects
// every shape and semantic violation in a rule file rather than failing on
// the first one, attaching a stable error code, the rule-file path, and
// (when a locator is supplied) a source location to each.
package validate

import (
	"fmt"

	"transform-rules/internal/locator"
	"transform-rules/internal/path"
	"transform-rules/internal/rules"
)

// Code is a stable, string-identified validation error code (§7).
type Code string

const (
	InvalidVersion           Code = "InvalidVersion"
	MissingInputFormat       Code = "MissingInputFormat"
	InvalidInputFormat       Code = "InvalidInputFormat"
	MissingCsvSection        Code = "MissingCsvSection"
	MissingJsonSection       Code = "MissingJsonSection"
	InvalidDelimiterLength   Code = "InvalidDelimiterLength"
	MissingCsvColumns        Code = "MissingCsvColumns"
	InvalidPath              Code = "InvalidPath"
	MissingTarget            Code = "MissingTarget"
	DuplicateTarget          Code = "DuplicateTarget"
	SourceValueExprExclusive Code = "SourceValueExprExclusive"
	MissingMappingValue      Code = "MissingMappingValue"
	InvalidRefNamespace      Code = "InvalidRefNamespace"
	ForwardOutReference      Code = "ForwardOutReference"
	UnknownOp                Code = "UnknownOp"
	InvalidArgs              Code = "InvalidArgs"
	InvalidExprShape         Code = "InvalidExprShape"
	InvalidTypeName          Code = "InvalidTypeName"
)

// Error is one collected violation.
type Error struct {
	Code    Code
	Message string
	Path    string
	Line    int
	Column  int
	HasLoc  bool
}

func (e *Error) Error() string {
	if e.HasLoc {
		return fmt.Sprintf("%s: %s (at %s, line %d, column %d)", e.Code, e.Message, e.Path, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
}

var namespaces = map[string]bool{"input": true, "context": true, "out": true}

var knownOps = map[string]bool{
	"concat": true, "coalesce": true, "to_string": true,
	"trim": true, "lowercase": true, "uppercase": true,
	"lookup": true, "lookup_first": true,
}

var knownTypes = map[string]bool{"string": true, "int": true, "float": true, "bool": true}

type ctx struct {
	loc  *locator.Locator
	errs []*Error
}

func (c *ctx) push(code Code, message, rulePath string) {
	err := &Error{Code: code, Message: message, Path: rulePath}
	if c.loc != nil {
		if loc, ok := c.loc.LocationFor(rulePath); ok {
			err.Line = loc.Line
			err.Column = loc.Column
			err.HasLoc = true
		}
	}
	c.errs = append(c.errs, err)
}

// Validate runs the full check pass with no source locations attached.
func Validate(rule *rules.RuleFile) []*Error {
	return validateWithLocator(rule, nil)
}

// ValidateWithSource runs the full check pass and attaches (line, column)
// to each violation where the shallow YAML locator can find one.
func ValidateWithSource(rule *rules.RuleFile, source string) []*Error {
	return validateWithLocator(rule, locator.FromString(source))
}

func validateWithLocator(rule *rules.RuleFile, loc *locator.Locator) []*Error {
	c := &ctx{loc: loc}

	validateVersion(rule, c)
	validateInput(rule, c)
	validateMappings(rule, c)

	return c.errs
}

func validateVersion(rule *rules.RuleFile, c *ctx) {
	if rule.Version != 1 {
		c.push(InvalidVersion, "version must be 1", "version")
	}
}

func validateInput(rule *rules.RuleFile, c *ctx) {
	switch rule.Input.Format {
	case rules.FormatCSV:
		if rule.Input.CSV == nil {
			c.push(MissingCsvSection, "input.csv is required when format=csv", "input.csv")
		}
	case rules.FormatJSON:
		if rule.Input.JSON == nil {
			c.push(MissingJsonSection, "input.json is required when format=json", "input.json")
		}
	default:
		c.push(InvalidInputFormat, "input.format must be csv or json", "input.format")
	}

	if csv := rule.Input.CSV; csv != nil {
		if len([]rune(csv.DelimiterOrDefault())) != 1 {
			c.push(InvalidDelimiterLength, "csv.delimiter must be a single character", "input.csv.delimiter")
		}
		if !csv.HasHeaderOrDefault() && len(csv.Columns) == 0 {
			c.push(MissingCsvColumns, "csv.columns is required when has_header=false", "input.csv.columns")
		}
	}

	if json := rule.Input.JSON; json != nil && json.RecordsPath != "" {
		if _, err := path.Parse(json.RecordsPath); err != nil {
			c.push(InvalidPath, "records_path is invalid", "input.json.records_path")
		}
	}
}

func validateMappings(rule *rules.RuleFile, c *ctx) {
	produced := map[string]bool{}

	for index, mapping := range rule.Mappings {
		base := fmt.Sprintf("mappings[%d]", index)

		if mapping.Target == "" {
			c.push(MissingTarget, "mapping.target is required", base+".target")
		}

		targetTokens, err := path.Parse(mapping.Target)
		if err != nil {
			c.push(InvalidPath, "target path is invalid", base+".target")
			continue
		}
		if path.HasIndex(targetTokens) {
			c.push(InvalidPath, "target path must not include indexes", base+".target")
			continue
		}

		targetKey := path.JoinKeys(path.KeysOnly(targetTokens))
		if produced[targetKey] {
			c.push(DuplicateTarget, "mapping.target is duplicated", base+".target")
		}

		count := 0
		if mapping.Source != "" {
			count++
		}
		if mapping.Value != nil {
			count++
		}
		if mapping.Expr != nil {
			count++
		}
		switch {
		case count == 0:
			c.push(MissingMappingValue, "mapping must define source, value, or expr", base)
		case count > 1:
			c.push(SourceValueExprExclusive, "exactly one of source/value/expr is required", base)
		}

		if mapping.Type != "" && !knownTypes[mapping.Type] {
			c.push(InvalidTypeName, "type must be string|int|float|bool", base+".type")
		}

		if mapping.Source != "" {
			validateSource(mapping.Source, base, produced, c)
		}

		if mapping.Expr != nil {
			validateExpr(mapping.Expr, base+".expr", produced, c)
		}

		if mapping.When != nil {
			validateExpr(mapping.When, base+".when", produced, c)
		}

		produced[targetKey] = true
	}
}

func splitNamespace(value string, namespaceRequired bool) (namespace, rest string, ok bool) {
	idx := -1
	for i, r := range value {
		if r == '.' {
			idx = i
			break
		}
	}
	if idx == -1 {
		if namespaceRequired || value == "" {
			return "", "", false
		}
		return "input", value, true
	}
	prefix := value[:idx]
	suffix := value[idx+1:]
	if suffix == "" {
		return "", "", false
	}
	if !namespaces[prefix] {
		return "", "", false
	}
	return prefix, suffix, true
}

func validateSource(source, basePath string, produced map[string]bool, c *ctx) {
	full := basePath + ".source"
	namespace, rest, ok := splitNamespace(source, false)
	if !ok {
		c.push(InvalidRefNamespace, "ref namespace must be input|context|out", full)
		return
	}

	tokens, err := path.Parse(rest)
	if err != nil {
		c.push(InvalidPath, "path is invalid", full)
		return
	}

	if namespace == "out" && !outRefResolves(tokens, produced) {
		c.push(ForwardOutReference, "out reference must point to previous mappings", full)
	}
}

func validateExpr(expr *rules.Expr, basePath string, produced map[string]bool, c *ctx) {
	switch expr.Kind {
	case rules.ExprKindRef:
		validateRef(expr, basePath, produced, c)
	case rules.ExprKindOp:
		validateOp(expr, basePath, produced, c)
	case rules.ExprKindChain:
		c.push(InvalidExprShape, "chain expressions are reserved and not evaluated", basePath)
	case rules.ExprKindLiteral:
		// literals never fail validation.
	}
}

func validateRef(expr *rules.Expr, basePath string, produced map[string]bool, c *ctx) {
	namespace, rest, ok := splitNamespace(expr.Ref, true)
	if !ok {
		c.push(InvalidRefNamespace, "ref namespace must be input|context|out", basePath)
		return
	}

	tokens, err := path.Parse(rest)
	if err != nil {
		c.push(InvalidPath, "path is invalid", basePath)
		return
	}

	if namespace == "out" && !outRefResolves(tokens, produced) {
		c.push(ForwardOutReference, "out reference must point to previous mappings", basePath)
	}
}

func outRefResolves(tokens []path.Token, produced map[string]bool) bool {
	keys := path.KeysOnly(tokens)
	if len(keys) == 0 {
		return false
	}
	for end := len(keys); end >= 1; end-- {
		if produced[path.JoinKeys(keys[:end])] {
			return true
		}
	}
	return false
}

func validateOp(expr *rules.Expr, basePath string, produced map[string]bool, c *ctx) {
	if !knownOps[expr.Op] {
		c.push(UnknownOp, "expr.op is not supported", basePath+".op")
	}

	if len(expr.Args) == 0 {
		c.push(InvalidArgs, "expr.args must be a non-empty array", basePath+".args")
	}

	switch expr.Op {
	case "trim", "lowercase", "uppercase", "to_string":
		if len(expr.Args) != 1 {
			c.push(InvalidArgs, "expr.args must contain exactly one item", basePath+".args")
		}
	case "lookup", "lookup_first":
		validateLookupArgs(expr, basePath, c)
	}

	for index, arg := range expr.Args {
		argCopy := arg
		validateExpr(&argCopy, fmt.Sprintf("%s.args[%d]", basePath, index), produced, c)
	}
}

func validateLookupArgs(expr *rules.Expr, basePath string, c *ctx) {
	n := len(expr.Args)
	if n < 3 || n > 4 {
		c.push(InvalidArgs, "lookup args must be [collection, key_path, match_value, output_path?]", basePath+".args")
		return
	}

	keyPath, ok := literalString(expr.Args[1])
	if !ok || keyPath == "" {
		c.push(InvalidArgs, "lookup key_path must be a non-empty string literal", fmt.Sprintf("%s.args[1]", basePath))
	} else if _, err := path.Parse(keyPath); err != nil {
		c.push(InvalidArgs, "lookup key_path is invalid", fmt.Sprintf("%s.args[1]", basePath))
	}

	if n == 4 {
		outputPath, ok := literalString(expr.Args[3])
		if !ok || outputPath == "" {
			c.push(InvalidArgs, "lookup output_path must be a non-empty string literal", fmt.Sprintf("%s.args[3]", basePath))
		} else if _, err := path.Parse(outputPath); err != nil {
			c.push(InvalidArgs, "lookup output_path is invalid", fmt.Sprintf("%s.args[3]", basePath))
		}
	}
}

func literalString(expr rules.Expr) (string, bool) {
	if expr.Kind != rules.ExprKindLiteral {
		return "", false
	}
	s, ok := expr.Literal.(string)
	return s, ok
}
