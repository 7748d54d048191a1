package scrape

import "leadmart-engine/internal/domain"

// Deduper tracks seen identity keys across pages. First occurrence wins;
// later duplicates are dropped regardless of how many fields they carry.
type Deduper struct {
	seen map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// IsNew reports whether the record's identity key has not been seen, and
// records it. Call before appending to the session's collection.
func (d *Deduper) IsNew(r domain.LeadRecord) bool {
	key := r.IdentityKey()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Len is the number of distinct identities accepted so far.
func (d *Deduper) Len() int { return len(d.seen) }
