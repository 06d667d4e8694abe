package path

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Token
		wantErr ErrorKind
		isErr   bool
	}{
		{name: "simple key", input: "name", want: []Token{{Kind: Key, Key: "name"}}},
		{name: "dotted keys", input: "a.b.c", want: []Token{
			{Kind: Key, Key: "a"}, {Kind: Key, Key: "b"}, {Kind: Key, Key: "c"},
		}},
		{name: "index", input: "a[0]", want: []Token{
			{Kind: Key, Key: "a"}, {Kind: Index, Idx: 0},
		}},
		{name: "stacked indexes", input: "a[0][1]", want: []Token{
			{Kind: Key, Key: "a"}, {Kind: Index, Idx: 0}, {Kind: Index, Idx: 1},
		}},
		{name: "quoted key double", input: `a["b.c"]`, want: []Token{
			{Kind: Key, Key: "a"}, {Kind: Key, Key: "b.c"},
		}},
		{name: "quoted key single", input: `a['b c']`, want: []Token{
			{Kind: Key, Key: "a"}, {Kind: Key, Key: "b c"},
		}},
		{name: "escaped quote", input: `a["b\"c"]`, want: []Token{
			{Kind: Key, Key: "a"}, {Kind: Key, Key: `b"c`},
		}},
		{name: "escaped backslash", input: `a["b\\c"]`, want: []Token{
			{Kind: Key, Key: "a"}, {Kind: Key, Key: `b\c`},
		}},
		{name: "empty path", input: "", isErr: true, wantErr: Empty},
		{name: "leading dot", input: ".a", isErr: true, wantErr: EmptyKey},
		{name: "trailing dot", input: "a.", isErr: true, wantErr: InvalidSyntax},
		{name: "double dot", input: "a..b", isErr: true, wantErr: EmptyKey},
		{name: "unterminated bracket", input: "a[0", isErr: true, wantErr: InvalidSyntax},
		{name: "unterminated quote", input: `a["b`, isErr: true, wantErr: InvalidSyntax},
		{name: "bad escape", input: `a["b\nc"]`, isErr: true, wantErr: InvalidEscape},
		{name: "empty quoted key", input: `a[""]`, isErr: true, wantErr: EmptyKey},
		{name: "unescaped bracket in quotes", input: `a["b[c"]`, isErr: true, wantErr: InvalidSyntax},
		{name: "garbage in bracket", input: "a[x]", isErr: true, wantErr: InvalidSyntax},
		{name: "no separator between segments", input: `a[0]b`, isErr: true, wantErr: InvalidSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.isErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error %v", tt.input, got, tt.wantErr)
				}
				pe, ok := err.(*Error)
				if !ok {
					t.Fatalf("Parse(%q) error type = %T, want *Error", tt.input, err)
				}
				if pe.Kind != tt.wantErr {
					t.Fatalf("Parse(%q) error kind = %v, want %v", tt.input, pe.Kind, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoinKeysDoesNotCollideAcrossSegmentBoundaries(t *testing.T) {
	twoKeys := JoinKeys([]string{"a", "b"})
	oneKey := JoinKeys([]string{"a.b"})
	if twoKeys == oneKey {
		t.Fatalf("JoinKeys([a,b]) = %q collided with JoinKeys([\"a.b\"]) = %q", twoKeys, oneKey)
	}
}

func TestGet(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{
			"b": []any{1.0, 2.0, map[string]any{"c": "hi"}},
		},
	}

	tests := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{name: "nested object", path: "a.b[2].c", want: "hi", found: true},
		{name: "array element", path: "a.b[0]", want: 1.0, found: true},
		{name: "missing key", path: "a.missing", found: false},
		{name: "out of range index", path: "a.b[9]", found: false},
		{name: "wrong kind descent", path: "a.b.c", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Parse(tt.path)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.path, err)
			}
			got, ok := Get(doc, tokens)
			if ok != tt.found {
				t.Fatalf("Get(%q) found = %v, want %v", tt.path, ok, tt.found)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Get(%q) = %#v, want %#v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSet(t *testing.T) {
	root := map[string]any{}
	tokens, err := Parse("a.b")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ok := Set(root, tokens, 1.0); !ok {
		t.Fatalf("Set(a.b) failed")
	}

	tokens2, _ := Parse("a.c")
	if ok := Set(root, tokens2, 2.0); !ok {
		t.Fatalf("Set(a.c) failed")
	}

	want := map[string]any{"a": map[string]any{"b": 1.0, "c": 2.0}}
	if !reflect.DeepEqual(root, want) {
		t.Fatalf("root = %#v, want %#v", root, want)
	}

	// Colliding with a non-object intermediate must fail.
	collideRoot := map[string]any{"a": "scalar"}
	collideTokens, _ := Parse("a.b")
	if ok := Set(collideRoot, collideTokens, 1.0); ok {
		t.Fatalf("Set should fail when intermediate is a non-object")
	}
}
