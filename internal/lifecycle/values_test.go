package lifecycle

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func usd(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestTruncateUSDNeverRounds(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"7.189", "7.18"},
		{"7.1899", "7.18"},
		{"7.1", "7.1"},
		{"7", "7"},
		{"0.999", "0.99"},
		{"-3.456", "-3.45"},
	}
	for _, c := range cases {
		got := TruncateUSD(*usd(c.in))
		if got.String() != c.want {
			t.Errorf("TruncateUSD(%s) = %s, want %s", c.in, got.String(), c.want)
		}
	}
}

func TestUnitValue(t *testing.T) {
	if v := UnitValue(usd("150.00"), 10); v == nil || v.String() != "15" {
		t.Errorf("150/10 = %v, want 15", v)
	}
	if v := UnitValue(usd("100.00"), 3); v == nil || v.String() != "33.33" {
		t.Errorf("100/3 = %v, want truncated 33.33", v)
	}
	// Unknown, not zero: nil when the divisor is zero or the total is missing.
	if v := UnitValue(usd("150.00"), 0); v != nil {
		t.Errorf("quantity 0 should yield nil, got %v", v)
	}
	if v := UnitValue(nil, 5); v != nil {
		t.Errorf("missing total should yield nil, got %v", v)
	}
}

func TestNormalizeSPN(t *testing.T) {
	cases := []struct{ in, want string }{
		{"4711", "004711"},
		{"004711", "004711"},
		{" 12 ", "000012"},
		{"1234567", "1234567"},
		{"AB-991", "AB-991"},
		{"12.5", "12.5"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeSPN(c.in); got != c.want {
			t.Errorf("NormalizeSPN(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGenerateRecordID(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	id := GenerateRecordID("Skandi Vitória", "004711", "Skandi Urca", "Maintenance", "PR-8842", now)
	want := "#Skandi Vitória-004711-Skandi Urca-MAI-PR-8842/2025"
	if id != want {
		t.Errorf("id = %q, want %q", id, want)
	}

	// Empty department and PR fall back to placeholders.
	id = GenerateRecordID("B", "1", "A", "", "", now)
	if id != "#B-1-A-XXX-0000/2025" {
		t.Errorf("fallback id = %q", id)
	}
}
