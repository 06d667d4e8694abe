package rules

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"transform-rules/internal/util"
)

// Load reads and strictly decodes a rule file from disk. Environment
// variables ($VAR, ${VAR}, %VAR%) are expanded in the raw text before
// parsing, so a rule's records_path or CSV delimiter can be parameterized
// per-deployment the same way the rest of this codebase's config layer
// expands its own file paths and connection strings.
func Load(filePath string) (*RuleFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("rules: failed to read %q: %w", filePath, err)
	}
	return Parse(data)
}

// Parse strictly decodes raw YAML rule-file text. Unknown fields are
// rejected at every object level (§6); Expr's four-variant shape is handled
// separately by Expr.UnmarshalYAML and falls back to a literal rather than
// erroring on an unrecognized key set, matching the reference engine's
// untagged-enum-with-literal-catch-all behavior.
func Parse(data []byte) (*RuleFile, error) {
	expanded := util.ExpandEnvUniversal(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var rule RuleFile
	if err := dec.Decode(&rule); err != nil {
		return nil, fmt.Errorf("rules: failed to parse rule file: %w", err)
	}

	// Mapping.Value/Default decode through yaml.v3's own generic-interface
	// path (they aren't Expr, so UnmarshalYAML never runs on them) and so
	// still carry yaml.v3's native `int` rather than the int64/float64
	// convention the rest of the tree expects; normalize them here.
	for i := range rule.Mappings {
		if rule.Mappings[i].Value != nil {
			normalized := normalizeLiteral(*rule.Mappings[i].Value)
			rule.Mappings[i].Value = &normalized
		}
		if rule.Mappings[i].Default != nil {
			normalized := normalizeLiteral(*rule.Mappings[i].Default)
			rule.Mappings[i].Default = &normalized
		}
	}

	return &rule, nil
}

// UnmarshalYAML implements the Expr tagged union. The variant is decided by
// the mapping's exact key set:
//   - {ref: <scalar string>}                      -> Ref
//   - {op: <scalar string>}                       -> Op, with no args
//   - {op: <scalar string>, args: <sequence>}     -> Op
//   - {chain: <sequence>}                         -> Chain (reserved)
//
// Anything else — a scalar, a sequence, or a mapping that almost but not
// quite matches one of the above (extra keys, wrong value kind) — is a
// Literal, exactly as an untagged enum whose variants deny unknown fields
// would fall through to a catch-all on every variant's failure.
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		fields := mappingFields(node)

		if len(fields) == 1 {
			if refNode, ok := fields["ref"]; ok && refNode.Kind == yaml.ScalarNode {
				var ref string
				if err := refNode.Decode(&ref); err == nil {
					*e = Expr{Kind: ExprKindRef, Ref: ref}
					return nil
				}
			}
			if chainNode, ok := fields["chain"]; ok && chainNode.Kind == yaml.SequenceNode {
				var chain []Expr
				if err := chainNode.Decode(&chain); err == nil {
					*e = Expr{Kind: ExprKindChain, Chain: chain}
					return nil
				}
			}
			if opNode, ok := fields["op"]; ok && opNode.Kind == yaml.ScalarNode {
				var op string
				if err := opNode.Decode(&op); err == nil {
					*e = Expr{Kind: ExprKindOp, Op: op}
					return nil
				}
			}
		}

		if len(fields) == 2 {
			opNode, hasOp := fields["op"]
			argsNode, hasArgs := fields["args"]
			if hasOp && hasArgs && opNode.Kind == yaml.ScalarNode && argsNode.Kind == yaml.SequenceNode {
				var op string
				var args []Expr
				if errOp := opNode.Decode(&op); errOp == nil {
					if errArgs := argsNode.Decode(&args); errArgs == nil {
						*e = Expr{Kind: ExprKindOp, Op: op, Args: args}
						return nil
					}
				}
			}
		}
	}

	var lit any
	if err := node.Decode(&lit); err != nil {
		return fmt.Errorf("expr: %w", err)
	}
	*e = Expr{Kind: ExprKindLiteral, Literal: normalizeLiteral(lit)}
	return nil
}

func mappingFields(node *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}
	return fields
}

// normalizeLiteral converts yaml.v3's generic decode result (which uses
// plain `int`) into the int64/float64 convention the rest of the tree
// (internal/jsonval) relies on for canonical number stringification.
func normalizeLiteral(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeLiteral(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeLiteral(val)
		}
		return out
	default:
		return v
	}
}
