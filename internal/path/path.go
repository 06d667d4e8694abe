// Package path implements the dotted/bracketed path grammar used everywhere
// a rule file names a location inside a JSON value: mapping targets,
// source/ref strings, records_path, and lookup's key_path/output_path
// literals all go through this one parser.
package path

import (
	"strconv"
	"strings"
)

// TokenKind distinguishes a string key from an array index within a Token.
type TokenKind int

const (
	Key TokenKind = iota
	Index
)

// Token is one step of a parsed path: either a map key or a slice index.
type Token struct {
	Kind TokenKind
	Key  string
	Idx  int
}

// ErrorKind enumerates the distinct ways a path string can fail to parse.
type ErrorKind int

const (
	Empty ErrorKind = iota
	InvalidSyntax
	InvalidEscape
	EmptyKey
)

func (k ErrorKind) String() string {
	switch k {
	case Empty:
		return "path is empty"
	case InvalidSyntax:
		return "path syntax is invalid"
	case InvalidEscape:
		return "path escape is invalid"
	case EmptyKey:
		return "path segment is empty"
	default:
		return "unknown path error"
	}
}

// Error is returned by Parse when a path string does not conform to the grammar.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string { return e.Kind.String() }

func newErr(kind ErrorKind) error { return &Error{Kind: kind} }

// Parse tokenizes a dotted/bracketed path string.
//
// Grammar: a non-empty dotted sequence of segments. A segment is a bare run
// of characters other than '.' and '[', or a stack of one or more bracket
// suffixes. `[<digits>]` is an index; `["key"]`/`['key']` is a quoted key
// with backslash escapes for the matching quote and backslash only.
func Parse(p string) ([]Token, error) {
	if len(p) == 0 {
		return nil, newErr(Empty)
	}

	runes := []rune(p)
	var tokens []Token
	i := 0

	for i < len(runes) {
		if runes[i] == '.' {
			return nil, newErr(EmptyKey)
		}

		if runes[i] == '[' {
			tok, next, err := parseBracket(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		} else {
			start := i
			for i < len(runes) && runes[i] != '.' && runes[i] != '[' {
				i++
			}
			if start == i {
				return nil, newErr(EmptyKey)
			}
			tokens = append(tokens, Token{Kind: Key, Key: string(runes[start:i])})
		}

		for i < len(runes) && runes[i] == '[' {
			tok, next, err := parseBracket(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		}

		if i < len(runes) {
			if runes[i] == '.' {
				i++
				if i == len(runes) {
					return nil, newErr(InvalidSyntax)
				}
			} else {
				return nil, newErr(InvalidSyntax)
			}
		}
	}

	return tokens, nil
}

func parseBracket(runes []rune, start int) (Token, int, error) {
	if start >= len(runes) || runes[start] != '[' {
		return Token{}, 0, newErr(InvalidSyntax)
	}
	i := start + 1
	if i >= len(runes) {
		return Token{}, 0, newErr(InvalidSyntax)
	}

	switch {
	case runes[i] == '"' || runes[i] == '\'':
		return parseQuoted(runes, i)
	case runes[i] >= '0' && runes[i] <= '9':
		return parseIndex(runes, i)
	default:
		return Token{}, 0, newErr(InvalidSyntax)
	}
}

func parseIndex(runes []rune, start int) (Token, int, error) {
	i := start
	value := 0
	hasDigit := false

	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		hasDigit = true
		value = value*10 + int(runes[i]-'0')
		i++
	}

	if !hasDigit {
		return Token{}, 0, newErr(InvalidSyntax)
	}
	if i >= len(runes) || runes[i] != ']' {
		return Token{}, 0, newErr(InvalidSyntax)
	}
	i++
	return Token{Kind: Index, Idx: value}, i, nil
}

func parseQuoted(runes []rune, start int) (Token, int, error) {
	quote := runes[start]
	i := start + 1
	var b strings.Builder
	closed := false

	for i < len(runes) {
		ch := runes[i]
		if ch == '\\' {
			i++
			if i >= len(runes) {
				return Token{}, 0, newErr(InvalidEscape)
			}
			escaped := runes[i]
			if escaped == '\\' || escaped == quote {
				b.WriteRune(escaped)
				i++
				continue
			}
			return Token{}, 0, newErr(InvalidEscape)
		}

		if ch == '[' || ch == ']' {
			return Token{}, 0, newErr(InvalidSyntax)
		}

		if ch == quote {
			i++
			closed = true
			break
		}

		b.WriteRune(ch)
		i++
	}

	if b.Len() == 0 {
		return Token{}, 0, newErr(EmptyKey)
	}
	if !closed {
		return Token{}, 0, newErr(InvalidSyntax)
	}
	if i >= len(runes) || runes[i] != ']' {
		return Token{}, 0, newErr(InvalidSyntax)
	}
	i++
	return Token{Kind: Key, Key: b.String()}, i, nil
}

// Get descends a generic JSON value (as produced by encoding/json: map[string]any,
// []any, plain scalars) following tokens. Any step that hits the wrong kind, a
// missing key, or an out-of-range index yields (nil, false) — missing, not an error.
func Get(value any, tokens []Token) (any, bool) {
	current := value
	for _, tok := range tokens {
		switch tok.Kind {
		case Key:
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := m[tok.Key]
			if !ok {
				return nil, false
			}
			current = v
		case Index:
			s, ok := current.([]any)
			if !ok {
				return nil, false
			}
			if tok.Idx < 0 || tok.Idx >= len(s) {
				return nil, false
			}
			current = s[tok.Idx]
		}
	}
	return current, true
}

// HasIndex reports whether any token in the sequence is an array index.
func HasIndex(tokens []Token) bool {
	for _, t := range tokens {
		if t.Kind == Index {
			return true
		}
	}
	return false
}

// KeysOnly filters out Index tokens, returning the string-key prefix usable
// for target-tracking and out-reference prefix matching.
func KeysOnly(tokens []Token) []string {
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == Key {
			keys = append(keys, t.Key)
		}
	}
	return keys
}

// JoinKeys encodes a key-only token sequence into a single string usable as
// a map key for the produced-target set. Each key is written after its
// length ("1:a1:b" for the keys "a", "b"; "3:a.b" for the quoted key "a.b"),
// so a literal separator inside a key can never collide with the boundary
// between two keys,
// matching the reference validator's use of the whole token sequence
// (Vec<PathToken>), not a dotted rendering of it, as the set element.
func JoinKeys(keys []string) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// Set assigns value into root at the path named by tokens (which must be
// key-only — callers enforce that via validation), creating intermediate
// map[string]any objects as needed. It reports ok=false if an intermediate
// component already holds a non-object value.
func Set(root map[string]any, tokens []Token, value any) bool {
	if len(tokens) == 0 {
		return false
	}
	current := root
	for i, tok := range tokens {
		if tok.Kind != Key {
			return false
		}
		if i == len(tokens)-1 {
			current[tok.Key] = value
			return true
		}
		next, exists := current[tok.Key]
		if !exists {
			child := make(map[string]any)
			current[tok.Key] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return false
		}
		current = child
	}
	return true
}
