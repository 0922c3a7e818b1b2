package domain

import (
	"encoding/json"
	"testing"
)

func TestParseAmountTreatsBlankAsZero(t *testing.T) {
	for _, raw := range []string{"", "  ", "null"} {
		d, err := ParseAmount(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !d.IsZero() {
			t.Fatalf("expected zero for %q, got %s", raw, d)
		}
	}
}

func TestParseAmountAcceptsDecimalComma(t *testing.T) {
	d, err := ParseAmount("12,5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if FormatAmount(d) != "12.50" {
		t.Fatalf("expected 12.50, got %s", FormatAmount(d))
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	if _, err := ParseAmount("abc"); err == nil {
		t.Fatalf("expected error for non numeric amount")
	}
}

func TestAmountJSONAcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 10, "b": "3.456", "c": null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.A.String() != "10.00" || payload.B.String() != "3.46" || payload.C.String() != "0.00" {
		t.Fatalf("unexpected amounts %s %s %s", payload.A, payload.B, payload.C)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":"10.00","b":"3.46","c":"0.00"}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestAmountCentsRoundsHalfAwayFromZero(t *testing.T) {
	cases := map[string]string{
		"4.125":  "4.13",
		"1.005":  "1.01",
		"-2.345": "-2.35",
		"0.004":  "0.00",
		"12":     "12.00",
	}
	for raw, want := range cases {
		if got := FormatAmount(MustAmount(raw).Cents()); got != want {
			t.Fatalf("%s: expected %s, got %s", raw, want, got)
		}
	}
}

func TestTruncatePrice(t *testing.T) {
	long := "123456789012345678901234567890123"
	if got := TruncatePrice(long); len(got) != MaxPriceLength {
		t.Fatalf("expected %d chars, got %d", MaxPriceLength, len(got))
	}
	if got := TruncatePrice("4.50"); got != "4.50" {
		t.Fatalf("expected short price untouched, got %q", got)
	}
}

func TestNatureForParty(t *testing.T) {
	if NatureForParty(0) != NatureTicket {
		t.Fatalf("walk-in sale must be a ticket")
	}
	if got := NatureForParty(7).String(); got != "BON DE L." {
		t.Fatalf("expected BON DE L., got %q", got)
	}
}

func TestPartyKindJSON(t *testing.T) {
	var k PartyKind
	if err := json.Unmarshal([]byte(`"f"`), &k); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if k != PartySupplier || k.Origin().String() != "VERSEMENT F" {
		t.Fatalf("unexpected kind %v origin %v", k, k.Origin())
	}
	if err := json.Unmarshal([]byte(`"X"`), &k); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
}
