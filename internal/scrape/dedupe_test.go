package scrape

import (
	"testing"

	"leadmart-engine/internal/domain"
)

func lead(company, phone, profile string) domain.LeadRecord {
	rec := domain.LeadRecord{Company: company}
	if phone != "" {
		rec.Phone = domain.PresentField(phone)
	}
	if profile != "" {
		rec.ProfileURL = domain.PresentField(profile)
	}
	return rec
}

func TestDeduper_SameKeyOnce(t *testing.T) {
	d := NewDeduper()
	if !d.IsNew(lead("Acme", "9876543210", "")) {
		t.Fatal("first occurrence must be new")
	}
	if d.IsNew(lead("Acme", "9876543210", "")) {
		t.Fatal("second occurrence must be a duplicate")
	}
	if d.Len() != 1 {
		t.Fatalf("len = %d, want 1", d.Len())
	}
}

func TestDeduper_NonIdentityFieldsIgnored(t *testing.T) {
	d := NewDeduper()
	a := lead("Acme", "9876543210", "")
	a.Title = domain.PresentField("Solar Panel 540W")

	b := lead("Acme", "9876543210", "")
	b.Title = domain.PresentField("Completely different product")
	b.Email = domain.PresentField("sales@acme.example")

	if !d.IsNew(a) {
		t.Fatal("first occurrence must be new")
	}
	if d.IsNew(b) {
		t.Fatal("same identity with richer fields must still dedupe (first wins)")
	}
}

func TestDeduper_ProfileURLFallbackKey(t *testing.T) {
	d := NewDeduper()
	if !d.IsNew(lead("Acme", "", "https://acme.example/profile")) {
		t.Fatal("first occurrence must be new")
	}
	if d.IsNew(lead("ACME", "", "https://acme.example/profile")) {
		t.Fatal("company match is case-insensitive")
	}
	if !d.IsNew(lead("Acme", "", "https://other.example/profile")) {
		t.Fatal("different profile URL is a different lead when phone is absent")
	}
}

func TestDeduper_PhoneDistinguishesSameCompany(t *testing.T) {
	d := NewDeduper()
	if !d.IsNew(lead("Acme", "9876543210", "")) {
		t.Fatal("first branch must be new")
	}
	if !d.IsNew(lead("Acme", "9123456789", "")) {
		t.Fatal("same company, different phone is a different lead")
	}
}
