package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"leadmart-engine/internal/domain"
)

// RawListing carries the fields as read off one card, tri-state preserved.
type RawListing struct {
	Company    domain.Field
	Title      domain.Field
	Price      domain.Field
	Address    domain.Field
	Phone      domain.Field
	Email      domain.Field
	ProfileURL domain.Field
	CatalogURL domain.Field
}

// Extractor reads fields from listing handles. Every field is isolated:
// a missing or broken element records absence and moves on. Only a dead
// handle (company lookup fails with a non-missing error) aborts a single
// listing, and that surfaces as a skip, never a run failure.
type Extractor struct {
	Log *slog.Logger
}

func (e Extractor) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// Extract reads all raw fields from one listing card.
func (e Extractor) Extract(ctx context.Context, h ListingHandle) (RawListing, error) {
	var raw RawListing

	company, err := h.Field(FieldCompany)
	if err != nil && !errors.Is(err, ErrFieldMissing) {
		// The handle itself is broken; nothing else will be readable.
		return RawListing{}, fmt.Errorf("listing handle unusable: %w", err)
	}
	raw.Company = fieldOf(company, err)

	raw.Title = e.grab(h, FieldTitle)
	raw.Price = e.grab(h, FieldPrice)

	// Prefer the full address; fall back to the short location tag.
	raw.Address = e.grab(h, FieldAddress)
	if !raw.Address.Present() {
		if loc := e.grab(h, FieldLocation); loc.Present() {
			raw.Address = loc
		}
	}

	raw.Phone = e.extractPhone(ctx, h)
	raw.ProfileURL = e.grabLink(h, FieldProfile)
	raw.CatalogURL = e.grabLink(h, FieldCatalog)

	// Email never appears on the card itself; the profile fallback fills it.
	raw.Email = domain.AbsentField()

	return raw, nil
}

// extractPhone reads the phone field, clicking the reveal control first
// when the number is hidden behind it.
func (e Extractor) extractPhone(ctx context.Context, h ListingHandle) domain.Field {
	if f := e.grab(h, FieldPhone); f.Present() {
		return f
	}
	if err := h.RevealPhone(ctx); err != nil {
		e.logger().Debug("phone reveal failed", "error", err)
		return domain.AbsentField()
	}
	return e.grab(h, FieldPhone)
}

func (e Extractor) grab(h ListingHandle, name string) domain.Field {
	v, err := h.Field(name)
	if err != nil && !errors.Is(err, ErrFieldMissing) {
		e.logger().Debug("field read failed", "field", name, "error", err)
	}
	return fieldOf(v, err)
}

func (e Extractor) grabLink(h ListingHandle, name string) domain.Field {
	v, err := h.Link(name)
	if err != nil && !errors.Is(err, ErrFieldMissing) {
		e.logger().Debug("link read failed", "field", name, "error", err)
	}
	return fieldOf(v, err)
}

func fieldOf(v string, err error) domain.Field {
	if err != nil {
		return domain.AbsentField()
	}
	return domain.PresentField(strings.TrimSpace(v))
}

var (
	profilePhoneRe = regexp.MustCompile(`(?:\+?91[\s-]?)?[6-9]\d{4}[\s-]?\d{5}`)
	profileEmailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
)

// EnrichFromProfile fills phone, email, and address gaps from a company
// profile page's HTML. Fields already present are never overwritten.
func EnrichFromProfile(raw *RawListing, html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}

	if !raw.Phone.Present() {
		if m := profilePhoneRe.FindString(doc.Text()); m != "" {
			raw.Phone = domain.PresentField(m)
		}
	}

	if !raw.Email.Present() {
		found := ""
		doc.Find("a[href^='mailto:']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			found = strings.TrimPrefix(href, "mailto:")
			return false
		})
		if found == "" {
			found = profileEmailRe.FindString(doc.Text())
		}
		if found != "" {
			raw.Email = domain.PresentField(strings.TrimSpace(found))
		}
	}

	if !raw.Address.Present() {
		for _, sel := range []string{".company-address", ".address", "[class*='location-details']"} {
			if t := CleanText(doc.Find(sel).First().Text()); t != "" {
				raw.Address = domain.PresentField(t)
				break
			}
		}
	}
}
