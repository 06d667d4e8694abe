// Package dto generates a destination-language type declaration from a rule
// file's mapping targets — the external collaborator named in §4.8, not
// part of the core transform engine (the reference crate's own lib.rs
// never re-exports its dto module either). It is grounded entirely in
// dto.rs: build_schema/insert_field for the schema walk, and one render
// function per target language for the identifier-casing/type-mapping
// rules each language needs.
package dto

import (
	"fmt"

	"transform-rules/internal/path"
	"transform-rules/internal/rules"
)

// Language is one of the seven DTO render targets.
type Language string

const (
	Rust       Language = "rust"
	TypeScript Language = "typescript"
	Python     Language = "python"
	Go         Language = "go"
	Java       Language = "java"
	Kotlin     Language = "kotlin"
	Swift      Language = "swift"
)

// PrimitiveType is a mapping's declared scalar type, carried into the
// generated field's type.
type PrimitiveType int

const (
	PrimitiveString PrimitiveType = iota
	PrimitiveInt
	PrimitiveFloat
	PrimitiveBool
)

// FieldKind discriminates the three shapes a Field can take (Field.Kind).
type FieldKind int

const (
	KindPrimitive FieldKind = iota
	KindObject
	KindJSONValue
)

// Field is one named entry in a SchemaNode, in mapping-encounter order.
type Field struct {
	Key       string
	Kind      FieldKind
	Primitive PrimitiveType
	Object    *SchemaNode
	Optional  bool
}

// SchemaNode is a nested-object level of the derived schema: an ordered
// field list, one entry per distinct key at that depth.
type SchemaNode struct {
	Fields []Field
}

// Error is returned by BuildSchema and Generate for a malformed rule.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func newErr(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// BuildSchema walks rule's mappings in order, deriving a nested object
// schema from each target path (§4.8). A mapping is optional iff it
// carries none of required/value/default. Duplicate keys at the same
// depth, or a path used as both a leaf and an object prefix, are refused.
func BuildSchema(rule *rules.RuleFile) (*SchemaNode, error) {
	root := &SchemaNode{}

	for _, m := range rule.Mappings {
		tokens, err := path.Parse(m.Target)
		if err != nil {
			return nil, newErr("target %q is invalid: %v", m.Target, err)
		}
		if path.HasIndex(tokens) {
			return nil, newErr("target %q must not include indexes", m.Target)
		}
		keys := path.KeysOnly(tokens)
		if len(keys) == 0 {
			return nil, newErr("target %q is invalid", m.Target)
		}

		var kind FieldKind
		var prim PrimitiveType
		switch m.Type {
		case "string":
			kind, prim = KindPrimitive, PrimitiveString
		case "int":
			kind, prim = KindPrimitive, PrimitiveInt
		case "float":
			kind, prim = KindPrimitive, PrimitiveFloat
		case "bool":
			kind, prim = KindPrimitive, PrimitiveBool
		case "":
			kind = KindJSONValue
		default:
			return nil, newErr("mapping %q has an unsupported type %q", m.Target, m.Type)
		}

		optional := !(m.Required || m.Value != nil || m.Default != nil)

		if err := insertField(root, keys, kind, prim, optional); err != nil {
			return nil, err
		}
	}

	finalizeObjectOptionality(root)
	return root, nil
}

// finalizeObjectOptionality marks a nested-object field optional once all of
// its mappings are in: an object field is optional iff none of its
// descendants are themselves required.
func finalizeObjectOptionality(node *SchemaNode) {
	for i := range node.Fields {
		if node.Fields[i].Kind != KindObject {
			continue
		}
		finalizeObjectOptionality(node.Fields[i].Object)
		node.Fields[i].Optional = !nodeHasRequired(node.Fields[i].Object)
	}
}

func insertField(node *SchemaNode, keys []string, kind FieldKind, prim PrimitiveType, optional bool) error {
	if len(keys) == 0 {
		return newErr("target path is invalid")
	}

	key := keys[0]
	if len(keys) == 1 {
		for _, f := range node.Fields {
			if f.Key == key {
				return newErr("duplicate target %q in generated schema", key)
			}
		}
		node.Fields = append(node.Fields, Field{Key: key, Kind: kind, Primitive: prim, Optional: optional})
		return nil
	}

	for i := range node.Fields {
		if node.Fields[i].Key == key {
			if node.Fields[i].Kind != KindObject {
				return newErr("target %q conflicts with a non-object field", key)
			}
			return insertField(node.Fields[i].Object, keys[1:], kind, prim, optional)
		}
	}

	child := &SchemaNode{}
	if err := insertField(child, keys[1:], kind, prim, optional); err != nil {
		return err
	}
	node.Fields = append(node.Fields, Field{Key: key, Kind: KindObject, Object: child, Optional: false})
	return nil
}

// nodeHasRequired reports whether node (or any nested object) has at least
// one non-optional field — used to decide whether a nested struct field
// itself should be rendered as optional.
func nodeHasRequired(node *SchemaNode) bool {
	for _, f := range node.Fields {
		if f.Kind == KindObject {
			if nodeHasRequired(f.Object) {
				return true
			}
			continue
		}
		if !f.Optional {
			return true
		}
	}
	return false
}

// nodeUsesJSON reports whether node (or any nested object) has a
// KindJSONValue field, to decide whether a renderer needs its JSON-value
// import.
func nodeUsesJSON(node *SchemaNode) bool {
	for _, f := range node.Fields {
		if f.Kind == KindJSONValue {
			return true
		}
		if f.Kind == KindObject && nodeUsesJSON(f.Object) {
			return true
		}
	}
	return false
}

func schemaHasOptional(node *SchemaNode) bool {
	for _, f := range node.Fields {
		if f.Kind == KindObject {
			if !nodeHasRequired(f.Object) || schemaHasOptional(f.Object) {
				return true
			}
			continue
		}
		if f.Optional {
			return true
		}
	}
	return false
}

func schemaHasRename(node *SchemaNode, lang Language) bool {
	used := map[string]int{}
	for _, f := range node.Fields {
		ident := fieldIdentifier(lang, f.Key, used)
		if ident != f.Key {
			return true
		}
		if f.Kind == KindObject && schemaHasRename(f.Object, lang) {
			return true
		}
	}
	return false
}
