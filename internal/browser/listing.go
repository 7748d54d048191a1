package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"leadmart-engine/internal/config"
	"leadmart-engine/internal/scrape"
)

// cardHandle reads one listing card. Text and links come from a
// goquery parse of the card's HTML, which survives minor DOM churn;
// the live Rod element is kept only for the phone-reveal click.
type cardHandle struct {
	el  *rod.Element
	sel config.ResultSelectors
	doc *goquery.Document
}

var _ scrape.ListingHandle = (*cardHandle)(nil)

func newCardHandle(el *rod.Element, sel config.ResultSelectors) (*cardHandle, error) {
	h := &cardHandle{el: el, sel: sel}
	if err := h.refresh(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *cardHandle) refresh() error {
	html, err := h.el.HTML()
	if err != nil {
		return fmt.Errorf("card html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse card: %w", err)
	}
	h.doc = doc
	return nil
}

func (h *cardHandle) Field(name string) (string, error) {
	sel, err := h.textSelector(name)
	if err != nil {
		return "", err
	}
	s := h.doc.Find(sel).First()
	if s.Length() == 0 {
		return "", fmt.Errorf("%s: %w", name, scrape.ErrFieldMissing)
	}
	return strings.TrimSpace(s.Text()), nil
}

func (h *cardHandle) Link(name string) (string, error) {
	var sel string
	switch name {
	case scrape.FieldProfile:
		sel = h.sel.CompanyLink
	case scrape.FieldCatalog:
		sel = h.sel.Catalog
	default:
		return "", fmt.Errorf("no link field %q", name)
	}
	if sel == "" {
		return "", fmt.Errorf("%s: %w", name, scrape.ErrFieldMissing)
	}
	href, ok := h.doc.Find(sel).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", fmt.Errorf("%s: %w", name, scrape.ErrFieldMissing)
	}
	return strings.TrimSpace(href), nil
}

// RevealPhone clicks the card's "view number" control and re-parses
// the card so the now-visible number is readable through Field.
func (h *cardHandle) RevealPhone(ctx context.Context) error {
	if h.sel.PhoneReveal == "" {
		return scrape.ErrFieldMissing
	}
	has, btn, err := h.el.Has(h.sel.PhoneReveal)
	if err != nil {
		return fmt.Errorf("reveal control: %w", err)
	}
	if !has {
		return fmt.Errorf("reveal: %w", scrape.ErrFieldMissing)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("reveal click: %w", err)
	}
	// Give the number a moment to render before re-reading the card.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}
	return h.refresh()
}

func (h *cardHandle) textSelector(name string) (string, error) {
	var sel string
	switch name {
	case scrape.FieldTitle:
		sel = h.sel.Title
	case scrape.FieldCompany:
		sel = h.sel.Company
	case scrape.FieldPrice:
		sel = h.sel.Price
	case scrape.FieldLocation:
		sel = h.sel.Location
	case scrape.FieldAddress:
		sel = h.sel.FullAddress
	case scrape.FieldPhone:
		sel = h.sel.Phone
	default:
		return "", fmt.Errorf("no text field %q", name)
	}
	if sel == "" {
		return "", fmt.Errorf("%s: %w", name, scrape.ErrFieldMissing)
	}
	return sel, nil
}
