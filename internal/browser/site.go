package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"leadmart-engine/internal/config"
	"leadmart-engine/internal/scrape"
)

const pollInterval = 250 * time.Millisecond

// Marketplace drives the live site through one Chrome tab. It holds
// the tab the pipeline is currently working in; Search may swap it when
// the site opens results in a new tab.
type Marketplace struct {
	mgr *Manager
	cfg config.Config
	sel config.Selectors
	log *slog.Logger

	page *rod.Page
}

var _ scrape.Site = (*Marketplace)(nil)

func NewMarketplace(mgr *Manager, cfg config.Config, log *slog.Logger) *Marketplace {
	if log == nil {
		log = slog.Default()
	}
	return &Marketplace{mgr: mgr, cfg: cfg, sel: cfg.Site.Selectors, log: log}
}

func (m *Marketplace) OpenLogin(ctx context.Context) error {
	if m.page != nil {
		_ = m.page.Close()
		m.page = nil
	}
	page, err := m.mgr.NewPage(ctx, m.cfg.Site.LoginURL)
	if err != nil {
		return err
	}
	m.page = page
	return nil
}

func (m *Marketplace) SubmitPhone(ctx context.Context, phone string) error {
	input, err := m.waitElement(ctx, m.sel.Login.PhoneInput)
	if err != nil {
		return fmt.Errorf("browser: phone input: %w", err)
	}
	if err := typeInto(input, phone); err != nil {
		return fmt.Errorf("browser: type phone: %w", err)
	}
	if err := m.click(ctx, m.sel.Login.SendOTPButton); err != nil {
		return fmt.Errorf("browser: send otp: %w", err)
	}

	// The site either surfaces an inline error or swaps the form to the
	// OTP prompt. Poll for whichever comes first.
	return m.pollOutcome(ctx, m.cfg.WaitTimeout(), []outcome{
		{sel: m.sel.Login.InvalidNumber, err: scrape.ErrPhoneRejected},
		{sel: m.sel.Login.OTPInput, err: nil},
	}, fmt.Errorf("browser: otp prompt never appeared"))
}

func (m *Marketplace) SubmitOTP(ctx context.Context, code string) error {
	input, err := m.waitElement(ctx, m.sel.Login.OTPInput)
	if err != nil {
		return fmt.Errorf("browser: otp input: %w", err)
	}
	if err := typeInto(input, code); err != nil {
		return fmt.Errorf("browser: type otp: %w", err)
	}
	if err := m.click(ctx, m.sel.Login.VerifyButton); err != nil {
		return fmt.Errorf("browser: verify otp: %w", err)
	}

	// A rejected code shows an inline error; a good one navigates away.
	// Absence of the error within the window is success from this step's
	// point of view, ConfirmLogin does the positive check.
	err = m.pollOutcome(ctx, m.cfg.WaitTimeout(), []outcome{
		{sel: m.sel.Login.InvalidOTP, err: scrape.ErrOTPRejected},
		{sel: m.sel.Login.LoggedInMarker, err: nil},
	}, nil)
	return err
}

func (m *Marketplace) ConfirmLogin(ctx context.Context) error {
	if _, err := m.waitElement(ctx, m.sel.Login.LoggedInMarker); err != nil {
		return scrape.ErrNotLoggedIn
	}
	return nil
}

// Search navigates to the search page, issues the keyword, and lands
// the working tab on the results. The site opens results in a fresh
// tab, so after the click the newest tab is adopted.
func (m *Marketplace) Search(ctx context.Context, keyword string) error {
	page, err := m.mgr.NewPage(ctx, m.cfg.Site.SearchURL)
	if err != nil {
		return err
	}
	if m.page != nil {
		_ = m.page.Close()
	}
	m.page = page

	input, err := m.waitElement(ctx, m.sel.Search.Input)
	if err != nil {
		return fmt.Errorf("browser: search input: %w", err)
	}
	if err := typeInto(input, keyword); err != nil {
		return fmt.Errorf("browser: type keyword: %w", err)
	}
	if err := m.click(ctx, m.sel.Search.Button); err != nil {
		return fmt.Errorf("browser: search button: %w", err)
	}

	// Some result layouts interpose a second confirm button.
	if has, _, _ := m.page.Has(m.sel.Search.SubmitButton); has {
		if err := m.click(ctx, m.sel.Search.SubmitButton); err != nil {
			m.log.Warn("browser: search confirm click failed", "error", err)
		}
	}

	if err := m.adoptResultsTab(ctx); err != nil {
		return err
	}
	if _, err := m.waitElement(ctx, m.sel.Results.Container); err != nil {
		return fmt.Errorf("browser: results never rendered: %w", err)
	}
	return nil
}

func (m *Marketplace) Listings(ctx context.Context) ([]scrape.ListingHandle, error) {
	if _, err := m.waitElement(ctx, m.sel.Results.Container); err != nil {
		return nil, fmt.Errorf("browser: results container: %w", err)
	}
	els, err := m.page.Context(ctx).Elements(m.sel.Results.Card)
	if err != nil {
		return nil, fmt.Errorf("browser: listing cards: %w", err)
	}
	handles := make([]scrape.ListingHandle, 0, len(els))
	for _, el := range els {
		h, err := newCardHandle(el, m.sel.Results)
		if err != nil {
			// A card that cannot even be snapshotted is dropped here;
			// the pipeline accounts for it via the page found-count.
			m.log.Debug("browser: unreadable card", "error", err)
			continue
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (m *Marketplace) NextPage(ctx context.Context) (bool, error) {
	has, el, err := m.page.Context(ctx).Has(m.sel.Results.NextPage)
	if err != nil {
		return false, fmt.Errorf("browser: next control: %w", err)
	}
	if !has {
		return false, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("browser: next click: %w", err)
	}
	if err := m.page.Context(ctx).WaitLoad(); err != nil {
		m.log.Warn("browser: next page load", "error", err)
	}
	if _, err := m.waitElement(ctx, m.sel.Results.Container); err != nil {
		return false, fmt.Errorf("browser: next page results: %w", err)
	}
	return true, nil
}

// FetchProfile loads a company profile in a throwaway tab and returns
// its HTML, leaving the results tab untouched.
func (m *Marketplace) FetchProfile(ctx context.Context, url string) (string, error) {
	page, err := m.mgr.NewPage(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = page.Close() }()

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: profile html: %w", err)
	}
	return html, nil
}

func (m *Marketplace) Snapshot(ctx context.Context, label string) (string, error) {
	if m.page == nil {
		return "", fmt.Errorf("browser: no page to snapshot")
	}
	dir := m.cfg.Browser.SnapshotDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	bin, err := m.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", fmt.Errorf("browser: screenshot: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", label, time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, bin, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Close releases the working tab. The manager owns Chrome itself.
func (m *Marketplace) Close() {
	if m.page != nil {
		_ = m.page.Close()
		m.page = nil
	}
}

// adoptResultsTab switches the working tab to the newest one when the
// search click spawned it.
func (m *Marketplace) adoptResultsTab(ctx context.Context) error {
	b := m.mgr.Browser()
	if b == nil {
		return fmt.Errorf("browser: not started")
	}
	pages, err := b.Pages()
	if err != nil {
		return fmt.Errorf("browser: list tabs: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("browser: no tabs left")
	}
	newest := pages[len(pages)-1]
	if newest.TargetID == m.page.TargetID {
		return nil
	}
	m.log.Debug("browser: results opened in a new tab")
	_ = m.page.Close()
	m.page = newest.Context(ctx)
	if err := m.page.WaitLoad(); err != nil {
		m.log.Warn("browser: results tab load", "error", err)
	}
	return nil
}

// waitElement waits up to the configured wait timeout for sel.
func (m *Marketplace) waitElement(ctx context.Context, sel string) (*rod.Element, error) {
	if m.page == nil {
		return nil, fmt.Errorf("browser: no open page")
	}
	waitCtx, cancel := context.WithTimeout(ctx, m.cfg.WaitTimeout())
	defer cancel()
	el, err := m.page.Context(waitCtx).Element(sel)
	if err != nil {
		return nil, fmt.Errorf("wait for %q: %w", sel, err)
	}
	return el, nil
}

func (m *Marketplace) click(ctx context.Context, sel string) error {
	el, err := m.waitElement(ctx, sel)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// outcome pairs a selector with the verdict its appearance means.
type outcome struct {
	sel string
	err error
}

// pollOutcome watches the page until one of the outcome selectors shows
// up, returning its verdict, or fallback after the window closes.
func (m *Marketplace) pollOutcome(ctx context.Context, window time.Duration, outcomes []outcome, fallback error) error {
	deadline := time.Now().Add(window)
	for {
		for _, o := range outcomes {
			if o.sel == "" {
				continue
			}
			if has, _, _ := m.page.Has(o.sel); has {
				return o.err
			}
		}
		if time.Now().After(deadline) {
			return fallback
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// typeInto selects any existing text first so Input replaces it.
func typeInto(el *rod.Element, text string) error {
	_ = el.SelectAllText()
	return el.Input(text)
}
