package scrape

import (
	"errors"
	"strings"

	"leadmart-engine/internal/domain"
)

var (
	// ErrNoCompany rejects a listing without a company name.
	ErrNoCompany = errors.New("listing has no company name")
	// ErrNoContact rejects a listing with no phone, email, or profile URL.
	ErrNoContact = errors.New("listing has no contact fields")
)

// placeholders the site renders where a value is genuinely missing.
var placeholderValues = map[string]bool{
	"n/a": true, "na": true, "-": true, "--": true,
	"none": true, "null": true, "not listed": true,
	"not available": true,
}

// Normalizer turns raw extracted fields into a canonical LeadRecord.
type Normalizer struct {
	// RequireContact drops records whose phone, email, and profile URL
	// are all missing.
	RequireContact bool
}

// Normalize cleans every field, maps placeholder strings to absent, and
// rejects records without a company name. Rejection is a signal, not a
// fatal error; callers count and continue.
func (n Normalizer) Normalize(raw RawListing) (domain.LeadRecord, error) {
	company := CleanText(raw.Company.Export())
	if company == "" || placeholderValues[strings.ToLower(company)] {
		return domain.LeadRecord{}, ErrNoCompany
	}

	rec := domain.LeadRecord{
		Company:    company,
		Title:      cleanField(raw.Title),
		Price:      cleanField(raw.Price),
		Address:    cleanField(raw.Address),
		Phone:      normalizePhoneField(raw.Phone),
		Email:      normalizeEmailField(raw.Email),
		ProfileURL: cleanField(raw.ProfileURL),
		CatalogURL: cleanField(raw.CatalogURL),
	}

	if n.RequireContact && !rec.HasContact() {
		return domain.LeadRecord{}, ErrNoContact
	}
	return rec, nil
}

// cleanField trims and collapses whitespace, preserving the tri-state:
// an absent field stays absent, a present-but-placeholder value becomes
// absent, a present-but-blank value becomes empty.
func cleanField(f domain.Field) domain.Field {
	if f.State == domain.FieldAbsent {
		return f
	}
	v := CleanText(f.Value)
	if v == "" {
		return domain.Field{State: domain.FieldEmpty}
	}
	if placeholderValues[strings.ToLower(v)] {
		return domain.AbsentField()
	}
	return domain.Field{Value: v, State: domain.FieldPresent}
}

func normalizePhoneField(f domain.Field) domain.Field {
	f = cleanField(f)
	if !f.Present() {
		return f
	}
	p := NormalizePhone(f.Value)
	if p == "" {
		return domain.AbsentField()
	}
	return domain.Field{Value: p, State: domain.FieldPresent}
}

func normalizeEmailField(f domain.Field) domain.Field {
	f = cleanField(f)
	if !f.Present() {
		return f
	}
	e := NormalizeEmail(f.Value)
	if e == "" {
		return domain.AbsentField()
	}
	return domain.Field{Value: e, State: domain.FieldPresent}
}

// CleanText collapses whitespace runs (including non-breaking spaces and
// embedded newlines) and trims the ends.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePhone strips decoration, keeping digits and one leading "+".
// National 10-digit numbers pass through; 11–12 digit numbers with a
// country prefix of 91 or a trunk 0 are trimmed to the last 10 digits.
// A comma-separated list keeps each number, normalized independently.
func NormalizePhone(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' })
	var out []string
	for _, p := range parts {
		if n := normalizeOnePhone(p); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, ", ")
}

func normalizeOnePhone(s string) string {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")

	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}

	switch {
	case len(d) == 10:
		return d
	case (len(d) == 11 || len(d) == 12) && (strings.HasPrefix(d, "91") || strings.HasPrefix(d, "0")):
		return d[len(d)-10:]
	}
	if plus {
		return "+" + d
	}
	return d
}

// NormalizeEmail lowercases and applies a minimal shape check: an "@"
// with a dot somewhere after it. Anything else is treated as absent.
func NormalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.Index(s, "@")
	if at <= 0 || !strings.Contains(s[at+1:], ".") {
		return ""
	}
	return s
}
