// Package jsonval decodes JSON text the way the reference engine's number
// type behaves: a JSON number lexed without a '.' or exponent stays an
// exact int64, everything else becomes a float64. Plain encoding/json
// decoding collapses both into float64, which would make the canonical
// number-to-string rule in the expression evaluator (§4.4.1) impossible to
// reproduce byte-for-byte for large integers and would misclassify "5.0" as
// integer-exact. This package exists solely to preserve that distinction;
// everywhere else in the tree, a decoded value is one of: nil, bool,
// string, int64, float64, map[string]any, []any.
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohae/deepcopy"
)

// Decode parses data as a single JSON value, preserving the int64/float64
// distinction described above.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return normalize(raw), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		return numberToValue(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func numberToValue(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return int64(0)
	}
	return f
}

// Marshal re-encodes a decoded value back to JSON text.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// NumberToString implements the canonical number-to-string rule (§4.4.1):
// an int64 renders without a fractional part; a float64 renders via Go's
// shortest round-trip decimal formatter, then trailing fractional zeros
// (and a now-bare trailing dot) are trimmed, and negative zero renders as
// "0".
func NumberToString(v any) (string, bool) {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10), true
	case float64:
		if n == 0 {
			return "0", true
		}
		s := strconv.FormatFloat(n, 'f', -1, 64)
		if strings.Contains(s, ".") {
			s = strings.TrimRight(s, "0")
			s = strings.TrimSuffix(s, ".")
		}
		return s, true
	default:
		return "", false
	}
}

// IsNumber reports whether v is one of the numeric kinds this package
// produces.
func IsNumber(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	default:
		return false
	}
}

// AsFloat64 widens any numeric kind to float64.
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// DeepCopy clones maps and slices so that a value copied from a shared
// document (context, or another record's input) can never alias the
// original. Only map[string]any/[]any trees are copied (via deepcopy.Copy);
// any other value is returned as it is.
func DeepCopy(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		return deepcopy.Copy(v)
	default:
		return v
	}
}

// Describe renders a human-readable kind name for error messages.
func Describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64, float64:
		return "number"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
