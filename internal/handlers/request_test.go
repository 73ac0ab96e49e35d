package handlers

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFlexNumberUnmarshal(t *testing.T) {
	cases := []struct {
		in    string
		want  float64
		set   bool
		isErr bool
	}{
		{in: `12.5`, want: 12.5, set: true},
		{in: `"1500,50"`, want: 1500.5, set: true},
		{in: `" 7 "`, want: 7, set: true},
		{in: `null`},
		{in: `""`},
		{in: `"abc"`, isErr: true},
		{in: `"12abc"`, isErr: true},
		{in: `true`, isErr: true},
	}
	for _, tc := range cases {
		var n flexNumber
		err := json.Unmarshal([]byte(tc.in), &n)
		if tc.isErr {
			if !errors.Is(err, errInvalidNumber) {
				t.Fatalf("%s: expected errInvalidNumber, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if n.Set != tc.set || n.Value != tc.want {
			t.Fatalf("%s: got %+v", tc.in, n)
		}
	}
}

func TestFlexNumberInteger(t *testing.T) {
	if _, err := (flexNumber{}).integer(); err == nil {
		t.Fatalf("unset number is not an integer")
	}
	if _, err := (flexNumber{Value: 2.5, Set: true}).integer(); err == nil {
		t.Fatalf("fraction is not an integer")
	}
	if v, err := (flexNumber{Value: 3, Set: true}).integer(); err != nil || v != 3 {
		t.Fatalf("got %d %v", v, err)
	}
}

func TestColumnRefUnmarshal(t *testing.T) {
	cases := map[string]int{
		`2`:    2,
		`"2"`:  2,
		`"C"`:  2,
		`"aa"`: 26,
	}
	for in, want := range cases {
		var ref columnRef
		if err := json.Unmarshal([]byte(in), &ref); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if ref.index == nil || *ref.index != want {
			t.Fatalf("%s: got %v", in, ref.index)
		}
	}

	var empty columnRef
	if err := json.Unmarshal([]byte(`"-"`), &empty); err != nil || empty.index != nil {
		t.Fatalf("dash means unmapped, got %v %v", empty.index, err)
	}
	var bad columnRef
	if err := json.Unmarshal([]byte(`-1`), &bad); err == nil {
		t.Fatalf("expected negative column to fail")
	}
}
