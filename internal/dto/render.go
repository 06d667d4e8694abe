package dto

import (
	"fmt"
	"strings"

	"transform-rules/internal/rules"
)

// swiftJSONValueDef is appended to a Swift render whenever the schema
// contains an untyped mapping, since Swift has no built-in "any JSON
// value" Codable type.
const swiftJSONValueDef = `
enum SWIFT_JSON_VALUE: Codable {
    case string(String)
    case int(Int)
    case double(Double)
    case bool(Bool)
    case object([String: SWIFT_JSON_VALUE])
    case array([SWIFT_JSON_VALUE])
    case null

    init(from decoder: Decoder) throws {
        let container = try decoder.singleValueContainer()
        if let v = try? container.decode(String.self) { self = .string(v); return }
        if let v = try? container.decode(Int.self) { self = .int(v); return }
        if let v = try? container.decode(Double.self) { self = .double(v); return }
        if let v = try? container.decode(Bool.self) { self = .bool(v); return }
        if let v = try? container.decode([String: SWIFT_JSON_VALUE].self) { self = .object(v); return }
        if let v = try? container.decode([SWIFT_JSON_VALUE].self) { self = .array(v); return }
        self = .null
    }

    func encode(to encoder: Encoder) throws {
        var container = encoder.singleValueContainer()
        switch self {
        case .string(let v): try container.encode(v)
        case .int(let v): try container.encode(v)
        case .double(let v): try container.encode(v)
        case .bool(let v): try container.encode(v)
        case .object(let v): try container.encode(v)
        case .array(let v): try container.encode(v)
        case .null: try container.encodeNil()
        }
    }
}
`

// Generate builds schema from rule and renders it as a type declaration in
// language, using name as the root type's base name (defaulting to
// "Record"). It is the Go counterpart of generate_dto in dto.rs.
func Generate(rule *rules.RuleFile, language Language, name string) (string, error) {
	if name == "" {
		name = "Record"
	}

	schema, err := BuildSchema(rule)
	if err != nil {
		return "", err
	}

	registry := newNameRegistry(name)
	var types []typeDef
	collectTypes(schema, nil, registry, &types)

	switch language {
	case Go:
		return renderGo(types, registry), nil
	case Rust:
		return renderRust(types, registry), nil
	case TypeScript:
		return renderTypeScript(types, registry), nil
	case Python:
		return renderPython(types, registry, schema), nil
	case Java:
		return renderJava(types, registry), nil
	case Kotlin:
		return renderKotlin(types, registry), nil
	case Swift:
		return renderSwift(types, registry, schema), nil
	}
	return "", newErr("unsupported target language %q", language)
}

func objectTypeName(f Field, registry *nameRegistry, path []string) string {
	childPath := append(append([]string{}, path...), f.Key)
	return registry.get(childPath)
}

// --- Go ---

func goFieldType(f Field, registry *nameRegistry, path []string) string {
	switch f.Kind {
	case KindObject:
		return "*" + objectTypeName(f, registry, path)
	case KindJSONValue:
		return "any"
	}
	switch f.Primitive {
	case PrimitiveString:
		return "string"
	case PrimitiveInt:
		return "int64"
	case PrimitiveFloat:
		return "float64"
	case PrimitiveBool:
		return "bool"
	}
	return "any"
}

func renderGo(types []typeDef, registry *nameRegistry) string {
	var b strings.Builder
	b.WriteString("package dto\n")

	for _, td := range types {
		used := map[string]int{}
		fmt.Fprintf(&b, "\ntype %s struct {\n", td.name)
		for _, f := range td.node.Fields {
			ident := fieldIdentifier(Go, f.Key, used)
			typ := goFieldType(f, registry, td.path)
			tag := f.Key
			omit := ""
			if f.Optional || f.Kind == KindObject {
				omit = ",omitempty"
			}
			fmt.Fprintf(&b, "\t%s %s `json:\"%s%s\"`\n", ident, typ, tag, omit)
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// --- Rust ---

func rustFieldType(f Field, registry *nameRegistry, path []string) string {
	var base string
	switch f.Kind {
	case KindObject:
		base = objectTypeName(f, registry, path)
	case KindJSONValue:
		base = "serde_json::Value"
	default:
		switch f.Primitive {
		case PrimitiveString:
			base = "String"
		case PrimitiveInt:
			base = "i64"
		case PrimitiveFloat:
			base = "f64"
		case PrimitiveBool:
			base = "bool"
		}
	}
	if f.Optional {
		return "Option<" + base + ">"
	}
	return base
}

func renderRust(types []typeDef, registry *nameRegistry) string {
	var b strings.Builder
	for i, td := range types {
		if i > 0 {
			b.WriteString("\n")
		}
		used := map[string]int{}
		b.WriteString("#[derive(Debug, Clone, serde::Serialize, serde::Deserialize)]\n")
		fmt.Fprintf(&b, "pub struct %s {\n", td.name)
		for _, f := range td.node.Fields {
			ident := fieldIdentifier(Rust, f.Key, used)
			var attrs []string
			if ident != f.Key {
				attrs = append(attrs, fmt.Sprintf("rename = %q", f.Key))
			}
			if f.Optional {
				attrs = append(attrs, "default", "skip_serializing_if = \"Option::is_none\"")
			}
			if len(attrs) > 0 {
				fmt.Fprintf(&b, "    #[serde(%s)]\n", strings.Join(attrs, ", "))
			}
			fmt.Fprintf(&b, "    pub %s: %s,\n", ident, rustFieldType(f, registry, td.path))
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// --- TypeScript ---

func tsFieldType(f Field, registry *nameRegistry, path []string) string {
	switch f.Kind {
	case KindObject:
		return objectTypeName(f, registry, path)
	case KindJSONValue:
		return "unknown"
	}
	switch f.Primitive {
	case PrimitiveString:
		return "string"
	case PrimitiveInt, PrimitiveFloat:
		return "number"
	case PrimitiveBool:
		return "boolean"
	}
	return "unknown"
}

func renderTypeScript(types []typeDef, registry *nameRegistry) string {
	var b strings.Builder
	for i, td := range types {
		if i > 0 {
			b.WriteString("\n")
		}
		used := map[string]int{}
		fmt.Fprintf(&b, "export interface %s {\n", td.name)
		for _, f := range td.node.Fields {
			ident := fieldIdentifier(TypeScript, f.Key, used)
			if ident != f.Key {
				fmt.Fprintf(&b, "  /** maps to %q */\n", f.Key)
			}
			q := ""
			if f.Optional {
				q = "?"
			}
			fmt.Fprintf(&b, "  %s%s: %s;\n", ident, q, tsFieldType(f, registry, td.path))
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// --- Python ---

func pyFieldType(f Field, registry *nameRegistry, path []string) string {
	var base string
	switch f.Kind {
	case KindObject:
		base = objectTypeName(f, registry, path)
	case KindJSONValue:
		base = "Any"
	default:
		switch f.Primitive {
		case PrimitiveString:
			base = "str"
		case PrimitiveInt:
			base = "int"
		case PrimitiveFloat:
			base = "float"
		case PrimitiveBool:
			base = "bool"
		}
	}
	if f.Optional {
		return "Optional[" + base + "]"
	}
	return base
}

func renderPython(types []typeDef, registry *nameRegistry, schema *SchemaNode) string {
	usesJSON := nodeUsesJSON(schema)
	usesRename := schemaHasRename(schema, Python)
	usesOptional := schemaHasOptional(schema) || usesRename

	var b strings.Builder
	if usesRename {
		b.WriteString("from dataclasses import dataclass, field\n")
	} else {
		b.WriteString("from dataclasses import dataclass\n")
	}
	switch {
	case usesJSON && usesOptional:
		b.WriteString("from typing import Any, Optional\n")
	case usesJSON:
		b.WriteString("from typing import Any\n")
	case usesOptional:
		b.WriteString("from typing import Optional\n")
	}
	for _, td := range types {
		b.WriteString("\n\n@dataclass\n")
		fmt.Fprintf(&b, "class %s:\n", td.name)

		used := map[string]int{}
		type pyField struct {
			ident, typ, line string
			optional         bool
		}
		var required, optional []pyField
		for _, f := range td.node.Fields {
			ident := fieldIdentifier(Python, f.Key, used)
			typ := pyFieldType(f, registry, td.path)
			var line string
			if ident != f.Key {
				if !f.Optional {
					typ = "Optional[" + typ + "]"
				}
				line = fmt.Sprintf("    %s: %s = field(default=None, metadata={\"rename\": %q})", ident, typ, f.Key)
			} else if f.Optional {
				line = fmt.Sprintf("    %s: %s = None", ident, typ)
			} else {
				line = fmt.Sprintf("    %s: %s", ident, typ)
			}
			pf := pyField{ident: ident, typ: typ, line: line, optional: f.Optional || ident != f.Key}
			if pf.optional {
				optional = append(optional, pf)
			} else {
				required = append(required, pf)
			}
		}
		if len(required)+len(optional) == 0 {
			b.WriteString("    pass\n")
			continue
		}
		for _, pf := range required {
			b.WriteString(pf.line + "\n")
		}
		for _, pf := range optional {
			b.WriteString(pf.line + "\n")
		}
	}
	return b.String()
}

// --- Java ---

func javaFieldType(f Field, registry *nameRegistry, path []string) string {
	switch f.Kind {
	case KindObject:
		return objectTypeName(f, registry, path)
	case KindJSONValue:
		return "Object"
	}
	switch f.Primitive {
	case PrimitiveString:
		return "String"
	case PrimitiveInt:
		return "Long"
	case PrimitiveFloat:
		return "Double"
	case PrimitiveBool:
		return "Boolean"
	}
	return "Object"
}

func renderJava(types []typeDef, registry *nameRegistry) string {
	var b strings.Builder
	for i, td := range types {
		if i > 0 {
			b.WriteString("\n")
		}
		used := map[string]int{}
		fmt.Fprintf(&b, "public class %s {\n", td.name)
		for _, f := range td.node.Fields {
			ident := fieldIdentifier(Java, f.Key, used)
			if ident != f.Key {
				fmt.Fprintf(&b, "    @JsonProperty(%q)\n", f.Key)
			}
			fmt.Fprintf(&b, "    public %s %s;\n", javaFieldType(f, registry, td.path), ident)
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// --- Kotlin ---

func kotlinFieldType(f Field, registry *nameRegistry, path []string) string {
	var base string
	switch f.Kind {
	case KindObject:
		base = objectTypeName(f, registry, path)
	case KindJSONValue:
		base = "Any"
	default:
		switch f.Primitive {
		case PrimitiveString:
			base = "String"
		case PrimitiveInt:
			base = "Long"
		case PrimitiveFloat:
			base = "Double"
		case PrimitiveBool:
			base = "Boolean"
		}
	}
	if f.Optional {
		return base + "?"
	}
	return base
}

func renderKotlin(types []typeDef, registry *nameRegistry) string {
	var b strings.Builder
	for i, td := range types {
		if i > 0 {
			b.WriteString("\n")
		}
		used := map[string]int{}
		fmt.Fprintf(&b, "data class %s(\n", td.name)
		lines := make([]string, 0, len(td.node.Fields))
		for _, f := range td.node.Fields {
			ident := fieldIdentifier(Kotlin, f.Key, used)
			var prefix string
			if ident != f.Key {
				prefix = fmt.Sprintf("    @JsonProperty(%q) ", f.Key)
			} else {
				prefix = "    "
			}
			typ := kotlinFieldType(f, registry, td.path)
			def := ""
			if f.Optional {
				def = " = null"
			}
			lines = append(lines, fmt.Sprintf("%sval %s: %s%s", prefix, ident, typ, def))
		}
		b.WriteString(strings.Join(lines, ",\n"))
		b.WriteString("\n)\n")
	}
	return b.String()
}

// --- Swift ---

func swiftFieldType(f Field, registry *nameRegistry, path []string) string {
	var base string
	switch f.Kind {
	case KindObject:
		base = objectTypeName(f, registry, path)
	case KindJSONValue:
		base = "SWIFT_JSON_VALUE"
	default:
		switch f.Primitive {
		case PrimitiveString:
			base = "String"
		case PrimitiveInt:
			base = "Int"
		case PrimitiveFloat:
			base = "Double"
		case PrimitiveBool:
			base = "Bool"
		}
	}
	if f.Optional {
		return base + "?"
	}
	return base
}

func renderSwift(types []typeDef, registry *nameRegistry, schema *SchemaNode) string {
	var b strings.Builder
	for i, td := range types {
		if i > 0 {
			b.WriteString("\n")
		}
		used := map[string]int{}
		fmt.Fprintf(&b, "struct %s: Codable {\n", td.name)

		type swField struct {
			ident, key string
		}
		var renamed []swField
		for _, f := range td.node.Fields {
			ident := fieldIdentifier(Swift, f.Key, used)
			let := "let"
			opt := ""
			if f.Optional {
				opt = "?"
			}
			fmt.Fprintf(&b, "    %s %s: %s%s\n", let, ident, swiftFieldType(f, registry, td.path), opt)
			if ident != f.Key {
				renamed = append(renamed, swField{ident: ident, key: f.Key})
			}
		}
		if len(renamed) > 0 {
			b.WriteString("\n    enum CodingKeys: String, CodingKey {\n")
			for _, rf := range renamed {
				fmt.Fprintf(&b, "        case %s = %q\n", rf.ident, rf.key)
			}
			b.WriteString("    }\n")
		}
		b.WriteString("}\n")
	}

	if nodeUsesJSON(schema) {
		b.WriteString(swiftJSONValueDef)
	}
	return b.String()
}
