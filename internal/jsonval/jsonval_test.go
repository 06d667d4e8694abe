package jsonval

import "testing"

func TestDecodePreservesIntFloatDistinction(t *testing.T) {
	v, err := Decode([]byte(`{"a": 5, "b": 5.0, "c": 1e10}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	m := v.(map[string]any)
	if _, ok := m["a"].(int64); !ok {
		t.Fatalf("a = %#v, want int64", m["a"])
	}
	if _, ok := m["b"].(float64); !ok {
		t.Fatalf("b = %#v, want float64", m["b"])
	}
	if _, ok := m["c"].(float64); !ok {
		t.Fatalf("c = %#v, want float64", m["c"])
	}
}

func TestNumberToString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "int64", in: int64(42), want: "42"},
		{name: "trailing zero trim", in: 123.450, want: "123.45"},
		{name: "whole float", in: 5.0, want: "5"},
		{name: "large float round-trip", in: 1e10, want: "10000000000"},
		{name: "negative zero", in: -0.0, want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NumberToString(tt.in)
			if !ok {
				t.Fatalf("NumberToString(%v) not ok", tt.in)
			}
			if got != tt.want {
				t.Fatalf("NumberToString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeepCopyIsolation(t *testing.T) {
	original := map[string]any{"nested": []any{int64(1), int64(2)}}
	clone := DeepCopy(original).(map[string]any)
	clone["nested"].([]any)[0] = int64(99)

	if original["nested"].([]any)[0].(int64) != 1 {
		t.Fatalf("DeepCopy aliased the original slice")
	}
}
