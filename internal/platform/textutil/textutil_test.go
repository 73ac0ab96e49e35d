package textutil

import (
	"errors"
	"testing"
)

func TestParseLooseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"100", 100},
		{"abc", 0},
		{"", 0},
		{"0", 0},
		{"1 250 руб", 1250},
		{"$99.50", 99.5},
		{"12.5.3", 12.5},
		{"-40", 40},
		{".", 0},
	}
	for _, tc := range tests {
		if got := ParseLooseNumber(tc.in); got != tc.want {
			t.Fatalf("ParseLooseNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	if v, err := ParseNumber(" 12,5 "); err != nil || v != 12.5 {
		t.Fatalf("expected 12.5, got %v err=%v", v, err)
	}
	if v, err := ParseNumber("-10"); err != nil || v != -10 {
		t.Fatalf("expected -10, got %v err=%v", v, err)
	}
	for _, raw := range []string{"", "abc", "NaN", "Inf"} {
		if _, err := ParseNumber(raw); !errors.Is(err, ErrInvalidNumber) {
			t.Fatalf("expected ErrInvalidNumber for %q, got %v", raw, err)
		}
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]float64{120: 120, 119.5: 120, 119.49: 119, -0.5: 0, -1.5: -1}
	for in, want := range cases {
		if got := RoundHalfUp(in); got != want {
			t.Fatalf("RoundHalfUp(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  <b>Oil</b> & filter "); got != "Oil & filter" {
		t.Fatalf("unexpected cleaned text %q", got)
	}
	if got := CleanMultiline("line <i>one</i>\r\nline two"); got != "line one\nline two" {
		t.Fatalf("unexpected multiline %q", got)
	}
}

func TestCleanFieldKeepsBrackets(t *testing.T) {
	tests := map[string]string{
		"Фильтр <MANN>":        "Фильтр <MANN>",
		"  <OEM> 04465-33450 ": "<OEM> 04465-33450",
		"Pads\tfront\n":        "Pads front",
		"A & B":                "A & B",
		"":                     "",
	}
	for in, want := range tests {
		if got := CleanField(in); got != want {
			t.Fatalf("CleanField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Иван Петров", "иван") {
		t.Fatalf("expected cyrillic fold match")
	}
	if !AnyContainsFold("jtd", "", "1HGCM82633A004352", "JTDBR32E") {
		t.Fatalf("expected match in second value")
	}
	if AnyContainsFold("bmw", "Toyota", "Honda") {
		t.Fatalf("unexpected match")
	}
	if !AnyContainsFold("  ", "anything") {
		t.Fatalf("blank needle should match")
	}
}
