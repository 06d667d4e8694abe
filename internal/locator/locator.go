// Package locator maps rule-file paths (e.g. "mappings[0].expr.op") to
// source (line, column) positions by scanning the raw YAML text with a
// shallow, indentation-driven pass. It is deliberately not a full YAML
// parser — duplicating the binding layer isn't worth it for best-effort
// diagnostics, and a miss just means an error without a location.
package locator

import "strings"

// Location is a 1-based line/column pair.
type Location struct {
	Line   int
	Column int
}

// Locator resolves rule-file paths to locations within one YAML document.
type Locator struct {
	locations map[string]Location
}

// FromString scans source and builds a Locator over it.
func FromString(source string) *Locator {
	l := &Locator{locations: make(map[string]Location)}
	l.build(source)
	return l
}

// LocationFor returns the location recorded for path, if any.
func (l *Locator) LocationFor(path string) (Location, bool) {
	loc, ok := l.locations[path]
	return loc, ok
}

type scope struct {
	indent int
	path   string
}

func (l *Locator) build(source string) {
	scopes := []scope{{indent: 0, path: ""}}
	seqIndices := make(map[string]int)

	lines := strings.Split(source, "\n")
	for lineIdx, raw := range lines {
		lineNumber := lineIdx + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := 0
		for indent < len(raw) && raw[indent] == ' ' {
			indent++
		}
		content := raw[indent:]

		if strings.HasPrefix(content, "-") {
			for len(scopes) > 1 && scopes[len(scopes)-1].indent >= indent {
				scopes = scopes[:len(scopes)-1]
			}
			parentPath := scopes[len(scopes)-1].path
			if parentPath == "" {
				continue
			}

			index := seqIndices[parentPath]
			seqIndices[parentPath] = index + 1

			itemPath := parentPath + "[" + itoa(index) + "]"
			l.insert(itemPath, lineNumber, indent+1)

			scopes = append(scopes, scope{indent: indent, path: itemPath})

			afterDash := content[1:]
			trimmedAfterDash := strings.TrimLeft(afterDash, " ")
			offset := 1 + (len(afterDash) - len(trimmedAfterDash))

			if key, column, hasValue, isBlock, ok := parseKeyAt(trimmedAfterDash, indent, offset); ok {
				fullPath := itemPath + "." + key
				l.insert(fullPath, lineNumber, column)
				if !hasValue || isBlock {
					scopes = append(scopes, scope{indent: indent + offset, path: fullPath})
				}
			}
			continue
		}

		for len(scopes) > 1 && scopes[len(scopes)-1].indent >= indent {
			scopes = scopes[:len(scopes)-1]
		}

		if key, column, hasValue, isBlock, ok := parseKeyAt(content, indent, 0); ok {
			parentPath := scopes[len(scopes)-1].path
			fullPath := key
			if parentPath != "" {
				fullPath = parentPath + "." + key
			}
			l.insert(fullPath, lineNumber, column)
			if !hasValue || isBlock {
				scopes = append(scopes, scope{indent: indent, path: fullPath})
			}
		}
	}
}

func (l *Locator) insert(path string, line, column int) {
	if _, exists := l.locations[path]; !exists {
		l.locations[path] = Location{Line: line, Column: column}
	}
}

func parseKeyAt(content string, indent, offset int) (key string, column int, hasValue, isBlock, ok bool) {
	key, keyStart, hasValue, isBlock, ok := parseKey(content)
	if !ok {
		return "", 0, false, false, false
	}
	column = indent + offset + keyStart + 1
	return key, column, hasValue, isBlock, true
}

func parseKey(content string) (key string, keyStart int, hasValue, isBlock, ok bool) {
	inSingle, inDouble := false, false
	colonIdx := -1

	for i, ch := range content {
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == ':' && !inSingle && !inDouble:
			colonIdx = i
		}
		if colonIdx != -1 {
			break
		}
	}

	if colonIdx == -1 {
		return "", 0, false, false, false
	}

	keyPart := content[:colonIdx]
	trimmedKey := strings.TrimSpace(keyPart)
	if trimmedKey == "" {
		return "", 0, false, false, false
	}

	start := strings.IndexFunc(keyPart, func(r rune) bool { return r != ' ' && r != '\t' })
	if start == -1 {
		return "", 0, false, false, false
	}

	rest := strings.TrimSpace(content[colonIdx+1:])
	hasValue = rest != ""
	isBlock = strings.HasPrefix(rest, "|") || strings.HasPrefix(rest, ">")

	return trimmedKey, start, hasValue, isBlock, true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
