package dto

import (
	"strconv"
	"strings"
)

// wordsFromKey splits a mapping key into alphanumeric runs, the same
// word-boundary rule dto.rs uses so that "user_id", "userId", and
// "user-id" all produce the same ["user", "id"] word list regardless of
// target-language casing convention.
func wordsFromKey(key string) []string {
	var words []string
	var cur strings.Builder
	var prev rune
	for _, r := range key {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			if r >= 'A' && r <= 'Z' && ((prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9')) {
				words = append(words, cur.String())
				cur.Reset()
			}
			cur.WriteRune(r)
		} else if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
		prev = r
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	if len(words) == 0 {
		words = []string{"field"}
	}
	return words
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func pascalCase(words []string) string {
	var b strings.Builder
	for _, w := range words {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

func snakeCase(words []string) string {
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}
	return strings.Join(lower, "_")
}

func lowerCamel(words []string) string {
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// nameRegistry assigns a stable, unique per-language type name to each
// nested-object path in a schema, so sibling objects that share a field
// name don't collide and a schema can be rendered deterministically.
type nameRegistry struct {
	base  string
	used  map[string]bool
	names map[string]string
}

func newNameRegistry(base string) *nameRegistry {
	return &nameRegistry{base: base, used: map[string]bool{}, names: map[string]string{}}
}

func pathKey(path []string) string { return strings.Join(path, "\x00") }

func (r *nameRegistry) typeNameForPath(path []string) string {
	k := pathKey(path)
	if name, ok := r.names[k]; ok {
		return name
	}

	name := r.base
	for _, segment := range path {
		name += pascalCase(wordsFromKey(segment))
	}
	if name == "" {
		name = "Record"
	}

	unique := name
	suffix := 2
	for r.used[unique] {
		unique = name + "_" + strconv.Itoa(suffix)
		suffix++
	}
	r.used[unique] = true
	r.names[k] = unique
	return unique
}

func (r *nameRegistry) get(path []string) string {
	return r.names[pathKey(path)]
}

// typeDef is one flattened nested-object level ready to render, collected
// depth-first so that child types are emitted before (or, for languages
// that don't care about declaration order, alongside) their parents.
type typeDef struct {
	name string
	node *SchemaNode
	path []string
}

func collectTypes(node *SchemaNode, path []string, registry *nameRegistry, out *[]typeDef) {
	for _, f := range node.Fields {
		if f.Kind != KindObject {
			continue
		}
		childPath := append(append([]string{}, path...), f.Key)
		registry.typeNameForPath(childPath)
		collectTypes(f.Object, childPath, registry, out)
	}

	name := registry.typeNameForPath(path)
	*out = append(*out, typeDef{name: name, node: node, path: path})
}

// fieldIdentifier derives a language-appropriate, collision-free, non-
// reserved identifier for a field key, casing it per lang's convention and
// disambiguating repeats within the same struct with a numeric suffix.
func fieldIdentifier(lang Language, key string, used map[string]int) string {
	words := wordsFromKey(key)

	var base string
	switch lang {
	case Rust, Python:
		base = snakeCase(words)
	case TypeScript, Java, Kotlin, Swift:
		base = lowerCamel(words)
	case Go:
		base = pascalCase(words)
	}

	ident := base
	if ident == "" {
		if lang == Go {
			ident = "Field"
		} else {
			ident = "field"
		}
	}

	if len(ident) > 0 && ident[0] >= '0' && ident[0] <= '9' {
		switch lang {
		case Go:
			ident = "Field" + ident
		case Java, Kotlin, Swift:
			ident = "field" + capitalize(ident)
		default:
			ident = "_" + ident
		}
	}

	if isReserved(lang, ident) {
		if lang == Go {
			ident += "Field"
		} else {
			ident += "_"
		}
	}

	n := used[ident]
	used[ident] = n + 1
	if n > 0 {
		return ident + "_" + strconv.Itoa(n+1)
	}
	return ident
}
