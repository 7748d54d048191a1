// Package browser drives the marketplace through a real Chrome
// instance via Rod. It owns the Chrome lifecycle and implements the
// site surface the scrape pipeline is written against.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"leadmart-engine/internal/config"
)

// Manager launches Chrome and hands out tabs. One manager per run.
type Manager struct {
	cfg config.Config
	log *slog.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

func NewManager(cfg config.Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{cfg: cfg, log: log}
}

// Start launches a local Chrome and connects to it.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return nil
	}

	l := launcher.New().Headless(m.cfg.Browser.Headless)

	// Anti-detection flags.
	l = l.Set("disable-blink-features", "AutomationControlled")

	wsURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return fmt.Errorf("browser: connect: %w", err)
	}

	m.lnch = l
	m.browser = b
	m.log.Info("browser: launched chrome", "headless", m.cfg.Browser.Headless, "stealth", m.cfg.Browser.Stealth)
	return nil
}

// NewPage opens a fresh tab, with the stealth patches applied when
// configured, and navigates it to url.
func (m *Manager) NewPage(ctx context.Context, url string) (*rod.Page, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}

	var page *rod.Page
	var err error
	if m.cfg.Browser.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.NavTimeout())
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.log.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	return page, nil
}

// Browser returns the connected Rod handle, or nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser
}

// Close shuts Chrome down and removes the launcher's temp profile.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return err
}
