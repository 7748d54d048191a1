package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// LeadRecord is one discovered business listing. Company is the only hard
// requirement; everything else is best-effort and tri-state.
type LeadRecord struct {
	Company    string
	Title      Field // product title / description
	Price      Field // may be textual, e.g. "Ask Price"
	Address    Field
	Phone      Field
	Email      Field
	ProfileURL Field
	CatalogURL Field
	Score      int // relevance, 0..100
}

// HasContact reports whether the record carries at least one way to reach
// the seller. Records with none are low-value and can be dropped.
func (r LeadRecord) HasContact() bool {
	return r.Phone.Present() || r.Email.Present() || r.ProfileURL.Present()
}

// IdentityKey derives the dedup key: (company, phone) when a phone exists,
// (company, profile URL) otherwise. Case-insensitive on the company name.
func (r LeadRecord) IdentityKey() string {
	second := r.Phone.Export()
	if second == "" {
		second = r.ProfileURL.Export()
	}
	return hashKey("company:" + strings.ToLower(strings.TrimSpace(r.Company)) + "|" + second)
}

func hashKey(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
