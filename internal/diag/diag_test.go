package diag

import (
	"testing"

	"prefabls/internal/source"
)

func TestCodeID(t *testing.T) {
	if got := MissingConfigKey.ID(); got != "PFX1001" {
		t.Fatalf("unexpected id %q", got)
	}
	if got := Code(42).String(); got != "[E0000]: Unknown error" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestBagLimitAndSort(t *testing.T) {
	b := NewBag(2)
	warn := NewWarning(MissingFlagKey, source.Span{Start: 10, End: 12}, source.Range{}, "w")
	err := NewError(MissingConfigKey, source.Span{Start: 1, End: 3}, source.Range{}, "e")
	b.AddAll([]Diagnostic{warn, err, err})
	if b.Len() != 2 {
		t.Fatalf("limit not applied, got %d", b.Len())
	}
	b.Sort()
	if b.Items()[0].Code != MissingConfigKey {
		t.Fatalf("expected error first, got %+v", b.Items())
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatal("expected both severities")
	}
}

func TestEqualIsOrderSensitive(t *testing.T) {
	a := NewError(MissingConfigKey, source.Span{Start: 1}, source.Range{}, "a").WithData(Payload{Key: "a"})
	b := NewError(MissingConfigKey, source.Span{Start: 2}, source.Range{}, "b").WithData(Payload{Key: "b"})
	if !Equal([]Diagnostic{a, b}, []Diagnostic{a, b}) {
		t.Fatal("identical lists must be equal")
	}
	if Equal([]Diagnostic{a, b}, []Diagnostic{b, a}) {
		t.Fatal("order must matter")
	}
	if Equal([]Diagnostic{a}, []Diagnostic{a.WithData(Payload{Key: "a", Kind: KeyConfig})}) {
		t.Fatal("payload must be compared")
	}
}

func TestSeverityLSP(t *testing.T) {
	if SevError.LSP() != 1 || SevWarning.LSP() != 2 || SevInfo.LSP() != 3 {
		t.Fatal("unexpected LSP severities")
	}
}
