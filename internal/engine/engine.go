// Package engine is the transform driver: it walks a validated rule file's
// mappings in declared order for each input record, building the output
// document one field at a time (§4.5). It is grounded in the teacher
// codebase's processorImpl.ProcessRecords/processSingleRecord shape — one
// entry point that iterates records, one per-record worker that applies
// the mapping list against a growing state map — generalized from a flat
// source-to-target copy into full expression evaluation, predicates,
// defaults, and casts.
package engine

import (
	"fmt"

	"transform-rules/internal/eval"
	"transform-rules/internal/jsonval"
	"transform-rules/internal/logging"
	"transform-rules/internal/path"
	"transform-rules/internal/rterr"
	"transform-rules/internal/rules"
)

// Engine holds a parsed rule file and the static context document, ready to
// transform any number of input records.
type Engine struct {
	rule    *rules.RuleFile
	context any
}

// New builds an Engine. context may be nil when the rule file makes no use
// of the context namespace.
func New(rule *rules.RuleFile, context any) *Engine {
	return &Engine{rule: rule, context: context}
}

// Result pairs one record's output (nil if the record was skipped) with any
// warnings accumulated while processing it.
type Result struct {
	Output   map[string]any
	Warnings []rterr.Warning
	Skipped  bool
}

// TransformAll runs every record through the driver and returns the full set
// of output documents, in the adapter's order, dropping skipped records.
// Use Stream for large inputs where per-record warnings matter.
func (e *Engine) TransformAll(records []map[string]any) ([]map[string]any, []rterr.Warning, error) {
	out := make([]map[string]any, 0, len(records))
	var allWarnings []rterr.Warning
	for i, rec := range records {
		res, err := e.transformOne(rec)
		if err != nil {
			return nil, allWarnings, fmt.Errorf("record %d: %w", i, err)
		}
		allWarnings = append(allWarnings, res.Warnings...)
		if res.Skipped {
			logging.Logf(logging.Debug, "Engine: record %d skipped (record_when false or unmet).", i)
			continue
		}
		out = append(out, res.Output)
	}
	return out, allWarnings, nil
}

// Stream runs each record through the driver and invokes fn with its Result
// in order, stopping at the first fail-fast error.
func (e *Engine) Stream(records []map[string]any, fn func(int, Result) error) error {
	for i, rec := range records {
		res, err := e.transformOne(rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if err := fn(i, res); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) transformOne(record map[string]any) (Result, error) {
	var warnings []rterr.Warning

	if e.rule.RecordWhen != nil {
		r := eval.Eval(e.rule.RecordWhen, record, e.context, nil, "record_when")
		switch r.Kind {
		case eval.Failed:
			return Result{}, r.Err
		case eval.Missing:
			return Result{Skipped: true}, nil
		case eval.Value:
			b, ok := r.V.(bool)
			if !ok {
				warnings = append(warnings, rterr.NewWarning(rterr.ExprError, "record_when did not evaluate to a boolean", "record_when"))
				return Result{Skipped: true, Warnings: warnings}, nil
			}
			if !b {
				return Result{Skipped: true}, nil
			}
		}
	}

	out := make(map[string]any, len(e.rule.Mappings))

	for i, m := range e.rule.Mappings {
		mp := fmt.Sprintf("mappings[%d]", i)

		if m.When != nil {
			r := eval.Eval(m.When, record, e.context, out, mp+".when")
			switch r.Kind {
			case eval.Failed:
				return Result{}, r.Err
			case eval.Missing:
				continue
			case eval.Value:
				b, ok := r.V.(bool)
				if !ok {
					warnings = append(warnings, rterr.NewWarning(rterr.ExprError, "when did not evaluate to a boolean", mp+".when"))
					continue
				}
				if !b {
					continue
				}
			}
		}

		resolved, err := resolveMappingBody(&m, record, e.context, out, mp)
		if err != nil {
			return Result{}, err
		}

		value := resolved.V
		switch resolved.Kind {
		case eval.Missing:
			if m.Default != nil {
				value = *m.Default
			} else if m.Required {
				return Result{}, rterr.New(rterr.MissingRequired, "required mapping resolved to Missing").WithPath(mp)
			} else {
				continue
			}
		case eval.Failed:
			return Result{}, resolved.Err
		}

		if value == nil {
			if m.Required {
				return Result{}, rterr.New(rterr.MissingRequired, "required mapping resolved to null").WithPath(mp)
			}
		} else if m.Type != "" {
			casted, castErr := eval.Cast(value, m.Type, mp)
			if castErr != nil {
				return Result{}, castErr
			}
			value = casted
		}

		// Every resolved value is cloned before it enters out: path.Set mutates
		// nested maps/slices in place, so without this an object literal or an
		// out/context/input-sourced object would alias across mappings and
		// across records.
		if value != nil {
			if _, isScalar := scalarKind(value); !isScalar {
				value = jsonval.DeepCopy(value)
			}
		}

		tokens, perr := path.Parse(m.Target)
		if perr != nil || path.HasIndex(tokens) {
			return Result{}, rterr.Newf(rterr.InvalidTarget, "target %q is invalid", m.Target).WithPath(mp + ".target")
		}
		if !path.Set(out, tokens, value) {
			return Result{}, rterr.Newf(rterr.InvalidTarget, "target %q collides with a non-object value", m.Target).WithPath(mp + ".target")
		}
	}

	return Result{Output: out, Warnings: warnings}, nil
}

// resolveMappingBody evaluates exactly one of source/value/expr for a mapping.
func resolveMappingBody(m *rules.Mapping, record, context, out any, mp string) (eval.Result, error) {
	switch {
	case m.Source != "":
		return eval.ResolveSource(m.Source, record, context, out, mp+".source"), nil
	case m.Value != nil:
		return eval.Result{Kind: eval.Value, V: *m.Value}, nil
	case m.Expr != nil:
		return eval.Eval(m.Expr, record, context, out, mp+".expr"), nil
	default:
		return eval.Result{}, rterr.New(rterr.InvalidTarget, "mapping has no source, value, or expr").WithPath(mp)
	}
}

// scalarKind reports whether v is a JSON scalar (string/number/bool) as
// opposed to a map or slice that needs deep-copy-on-assign protection.
func scalarKind(v any) (any, bool) {
	switch v.(type) {
	case string, bool, int64, float64:
		return v, true
	default:
		return v, false
	}
}
