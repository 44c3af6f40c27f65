package core

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 1_000_000, true},
		{"1.0", 1_000_000, true},
		{"1.23", 1_230_000, true},
		{"1,23", 1_230_000, true},
		{"0.000001", 1, true},
		{" 2.50 ", 2_500_000, true},
		{"0.0000005", 1, true}, // half-up on the seventh decimal
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Micros != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Micros, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFromUnits(t *testing.T) {
	if got := MoneyFromUnits(12.34).Micros; got != 12_340_000 {
		t.Fatalf("expected 12340000, got %d", got)
	}
	if got := MoneyFromUnits(0.000001).Micros; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestMoneyFormat(t *testing.T) {
	if got := (Money{Micros: 1_234_500}).Format(); got != "1.23" {
		t.Fatalf("expected 1.23, got %q", got)
	}
	if got := (Money{Micros: 50_000_000}).Format(); got != "50.00" {
		t.Fatalf("expected 50.00, got %q", got)
	}
}
