// Package eval is the expression evaluator: a pure function of
// (record, context, out-so-far) that reduces a rules.Expr tree to a
// three-state EvalResult (Missing, Value, or Error). It owns the operator
// table (concat, coalesce, to_string, trim, lowercase, uppercase, lookup,
// lookup_first) and the type-cast table, and stringifies numbers with
// internal/jsonval's canonical number-to-string rule; the transform driver
// (internal/engine) is the only caller that mutates anything.
package eval

import (
	"strings"

	"transform-rules/internal/jsonval"
	"transform-rules/internal/path"
	"transform-rules/internal/rterr"
	"transform-rules/internal/rules"
)

// ResultKind discriminates the three-state evaluation result.
type ResultKind int

const (
	Missing ResultKind = iota
	Value
	Failed
)

// Result is Missing, Value(V), or Failed(Err) — never more than one of
// V/Err is meaningful, selected by Kind.
type Result struct {
	Kind ResultKind
	V    any
	Err  *rterr.Error
}

func missing() Result                { return Result{Kind: Missing} }
func val(v any) Result                { return Result{Kind: Value, V: v} }
func fail(e *rterr.Error) Result      { return Result{Kind: Failed, Err: e} }
func failf(k rterr.Kind, rulePath, format string, args ...any) Result {
	return fail(rterr.Newf(k, format, args...).WithPath(rulePath))
}

// Eval reduces expr against the three namespaces at rulePath (used only for
// diagnostics — it names the expression's own location, e.g.
// "mappings[3].expr" or "mappings[3].expr.args[1]").
func Eval(expr *rules.Expr, record, context, out any, rulePath string) Result {
	switch expr.Kind {
	case rules.ExprKindLiteral:
		return val(expr.Literal)
	case rules.ExprKindRef:
		return evalRef(expr.Ref, record, context, out, rulePath)
	case rules.ExprKindOp:
		return evalOp(expr, record, context, out, rulePath)
	case rules.ExprKindChain:
		return failf(rterr.ExprError, rulePath, "chain expressions are reserved and not evaluated")
	default:
		return failf(rterr.ExprError, rulePath, "unrecognized expression shape")
	}
}

// ResolveSource resolves a mapping's `source` shorthand: a namespaced path
// exactly like `ref`, except the namespace defaults to `input` when absent
// (unlike ref, where an absent namespace is an error).
func ResolveSource(source string, record, context, out any, rulePath string) Result {
	namespace, rest, ok := splitPath(source, false)
	if !ok {
		return fail(rterr.New(rterr.InvalidRef, "source namespace must be input|context|out").WithPath(rulePath))
	}
	return resolveNamespace(namespace, rest, record, context, out, rulePath)
}

func evalRef(ref string, record, context, out any, rulePath string) Result {
	namespace, rest, ok := splitPath(ref, true)
	if !ok {
		return fail(rterr.New(rterr.InvalidRef, "ref namespace must be input|context|out").WithPath(rulePath))
	}
	return resolveNamespace(namespace, rest, record, context, out, rulePath)
}

// splitPath mirrors internal/validate's splitNamespace: split at the first
// '.', defaulting the namespace to "input" when namespaceRequired is false
// and no dot is present.
func splitPath(value string, namespaceRequired bool) (namespace, rest string, ok bool) {
	idx := strings.IndexByte(value, '.')
	if idx == -1 {
		if namespaceRequired || value == "" {
			return "", "", false
		}
		return "input", value, true
	}
	prefix, suffix := value[:idx], value[idx+1:]
	if suffix == "" {
		return "", "", false
	}
	switch prefix {
	case "input", "context", "out":
		return prefix, suffix, true
	default:
		return "", "", false
	}
}

func resolveNamespace(namespace, rest string, record, context, out any, rulePath string) Result {
	var doc any
	switch namespace {
	case "input":
		doc = record
	case "context":
		doc = context
	case "out":
		doc = out
	default:
		return fail(rterr.New(rterr.InvalidRef, "unknown namespace "+namespace).WithPath(rulePath))
	}

	tokens, err := path.Parse(rest)
	if err != nil {
		return fail(rterr.New(rterr.InvalidRef, "path is invalid: "+err.Error()).WithPath(rulePath))
	}

	v, found := path.Get(doc, tokens)
	if !found {
		return missing()
	}
	return val(v)
}

type opFunc func(args []rules.Expr, record, context, out any, rulePath string) Result

var ops = map[string]opFunc{
	"concat":       evalConcat,
	"coalesce":     evalCoalesce,
	"to_string":    evalToString,
	"trim":         evalTrim,
	"lowercase":    evalLowercase,
	"uppercase":    evalUppercase,
	"lookup":       evalLookup,
	"lookup_first": evalLookupFirst,
}

func evalOp(expr *rules.Expr, record, context, out any, rulePath string) Result {
	if len(expr.Args) == 0 {
		return failf(rterr.ExprError, rulePath+".args", "expr.args must be a non-empty array")
	}
	fn, ok := ops[expr.Op]
	if !ok {
		return failf(rterr.ExprError, rulePath+".op", "unknown operator %q", expr.Op)
	}
	return fn(expr.Args, record, context, out, rulePath)
}

func argPath(base string, i int) string {
	return base + ".args[" + itoa(i) + "]"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func evalConcat(args []rules.Expr, record, context, out any, rulePath string) Result {
	var b strings.Builder
	for i := range args {
		ap := argPath(rulePath, i)
		r := Eval(&args[i], record, context, out, ap)
		switch r.Kind {
		case Failed:
			return r
		case Missing:
			return missing()
		}
		if r.V == nil {
			return failf(rterr.ExprError, ap, "concat does not accept null")
		}
		s, err := stringify(r.V, ap)
		if err != nil {
			return fail(err)
		}
		b.WriteString(s)
	}
	return val(b.String())
}

func evalCoalesce(args []rules.Expr, record, context, out any, rulePath string) Result {
	for i := range args {
		r := Eval(&args[i], record, context, out, argPath(rulePath, i))
		if r.Kind == Failed {
			return r
		}
		if r.Kind == Missing || r.V == nil {
			continue
		}
		return val(r.V)
	}
	return missing()
}

func evalToString(args []rules.Expr, record, context, out any, rulePath string) Result {
	if len(args) != 1 {
		return failf(rterr.ExprError, rulePath+".args", "to_string takes exactly one argument")
	}
	ap := argPath(rulePath, 0)
	r := Eval(&args[0], record, context, out, ap)
	if r.Kind != Value {
		return r
	}
	if r.V == nil {
		return failf(rterr.ExprError, ap, "to_string does not accept null")
	}
	s, err := stringify(r.V, ap)
	if err != nil {
		return fail(err)
	}
	return val(s)
}

func evalUnaryStringOp(args []rules.Expr, record, context, out any, rulePath, opName string, transform func(string) string) Result {
	if len(args) != 1 {
		return failf(rterr.ExprError, rulePath+".args", "%s takes exactly one argument", opName)
	}
	ap := argPath(rulePath, 0)
	r := Eval(&args[0], record, context, out, ap)
	if r.Kind != Value {
		return r
	}
	s, ok := r.V.(string)
	if !ok {
		return failf(rterr.ExprError, ap, "%s requires a string operand", opName)
	}
	return val(transform(s))
}

func evalTrim(args []rules.Expr, record, context, out any, rulePath string) Result {
	return evalUnaryStringOp(args, record, context, out, rulePath, "trim", strings.TrimSpace)
}

func evalLowercase(args []rules.Expr, record, context, out any, rulePath string) Result {
	return evalUnaryStringOp(args, record, context, out, rulePath, "lowercase", strings.ToLower)
}

func evalUppercase(args []rules.Expr, record, context, out any, rulePath string) Result {
	return evalUnaryStringOp(args, record, context, out, rulePath, "uppercase", strings.ToUpper)
}

func evalLookupFirst(args []rules.Expr, record, context, out any, rulePath string) Result {
	return evalLookupImpl(args, record, context, out, rulePath, true)
}

func evalLookup(args []rules.Expr, record, context, out any, rulePath string) Result {
	return evalLookupImpl(args, record, context, out, rulePath, false)
}

func evalLookupImpl(args []rules.Expr, record, context, out any, rulePath string, first bool) Result {
	if len(args) < 3 || len(args) > 4 {
		return failf(rterr.ExprError, rulePath+".args", "lookup requires 3 or 4 arguments")
	}

	collection := Eval(&args[0], record, context, out, argPath(rulePath, 0))
	switch collection.Kind {
	case Failed:
		return collection
	case Missing:
		return failf(rterr.ExprError, argPath(rulePath, 0), "lookup collection is missing")
	}
	if collection.V == nil {
		return failf(rterr.ExprError, argPath(rulePath, 0), "lookup collection must not be null")
	}
	arr, ok := collection.V.([]any)
	if !ok {
		return failf(rterr.ExprError, argPath(rulePath, 0), "lookup collection must be an array")
	}

	keyPathStr, ok := literalString(args[1])
	if !ok || keyPathStr == "" {
		return failf(rterr.ExprError, argPath(rulePath, 1), "lookup key_path must be a non-empty string literal")
	}
	keyTokens, err := path.Parse(keyPathStr)
	if err != nil {
		return failf(rterr.ExprError, argPath(rulePath, 1), "lookup key_path is invalid: %v", err)
	}

	var outputTokens []path.Token
	hasOutput := false
	if len(args) == 4 {
		outputPathStr, ok := literalString(args[3])
		if !ok || outputPathStr == "" {
			return failf(rterr.ExprError, argPath(rulePath, 3), "lookup output_path must be a non-empty string literal")
		}
		outputTokens, err = path.Parse(outputPathStr)
		if err != nil {
			return failf(rterr.ExprError, argPath(rulePath, 3), "lookup output_path is invalid: %v", err)
		}
		hasOutput = true
	}

	matchResult := Eval(&args[2], record, context, out, argPath(rulePath, 2))
	switch matchResult.Kind {
	case Failed:
		return matchResult
	case Missing:
		return missing()
	}
	if matchResult.V == nil {
		return failf(rterr.ExprError, argPath(rulePath, 2), "lookup match_value must not be null")
	}
	matchKey, strErr := stringify(matchResult.V, argPath(rulePath, 2))
	if strErr != nil {
		return fail(strErr)
	}

	var results []any
	for _, item := range arr {
		itemKeyVal, found := path.Get(item, keyTokens)
		if !found {
			continue
		}
		itemKeyStr, strErr := stringify(itemKeyVal, rulePath)
		if strErr != nil {
			continue
		}
		if itemKeyStr != matchKey {
			continue
		}

		var extracted any
		if hasOutput {
			v, found := path.Get(item, outputTokens)
			if !found {
				continue
			}
			extracted = v
		} else {
			extracted = item
		}

		if first {
			return val(extracted)
		}
		results = append(results, extracted)
	}

	if first || len(results) == 0 {
		return missing()
	}
	return val(results)
}

func literalString(e rules.Expr) (string, bool) {
	if e.Kind != rules.ExprKindLiteral {
		return "", false
	}
	s, ok := e.Literal.(string)
	return s, ok
}

// stringify implements the value_to_string rule shared by concat,
// to_string, and lookup's match-key/item-key stringification.
func stringify(v any, rulePath string) (string, *rterr.Error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case int64, float64:
		s, ok := jsonval.NumberToString(t)
		if !ok {
			return "", rterr.New(rterr.ExprError, "cannot stringify number").WithPath(rulePath)
		}
		return s, nil
	case nil:
		return "", rterr.New(rterr.ExprError, "cannot stringify null").WithPath(rulePath)
	default:
		return "", rterr.Newf(rterr.ExprError, "cannot stringify %s", jsonval.Describe(v)).WithPath(rulePath)
	}
}
