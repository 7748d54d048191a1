package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string
	Warnings []string
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Error() string {
	return "config validation failed:\n- " + strings.Join(v.Errors, "\n- ")
}

// Validate checks a loaded config. Errors stop the run; warnings are
// surfaced to the operator and the run continues.
func Validate(cfg Config) Validation {
	var res Validation

	if strings.TrimSpace(cfg.Site.LoginURL) == "" {
		res.addErr("site.login_url is required")
	}
	if strings.TrimSpace(cfg.Site.SearchURL) == "" {
		res.addErr("site.search_url is required")
	}

	sel := cfg.Site.Selectors
	required := map[string]string{
		"site.selectors.login.phone_input":     sel.Login.PhoneInput,
		"site.selectors.login.send_otp_button": sel.Login.SendOTPButton,
		"site.selectors.login.otp_input":       sel.Login.OTPInput,
		"site.selectors.login.verify_button":   sel.Login.VerifyButton,
		"site.selectors.search.input":          sel.Search.Input,
		"site.selectors.results.card":          sel.Results.Card,
		"site.selectors.results.company":       sel.Results.Company,
	}
	for name, val := range required {
		if strings.TrimSpace(val) == "" {
			res.addErr("%s is required", name)
		}
	}
	if strings.TrimSpace(sel.Login.LoggedInMarker) == "" {
		res.addWarn("site.selectors.login.logged_in_marker is empty; login confirmation falls back to URL change only")
	}
	if strings.TrimSpace(sel.Results.NextPage) == "" {
		res.addWarn("site.selectors.results.next_page is empty; only the first page will be scraped")
	}

	if cfg.Scrape.MinLeads < 1 {
		res.addErr("scrape.min_leads must be >= 1")
	}
	if cfg.Scrape.MaxPages < 1 {
		res.addErr("scrape.max_pages must be >= 1")
	}
	if cfg.Scrape.ListingDelayMinMs > cfg.Scrape.ListingDelayMaxMs {
		res.addErr("scrape.listing_delay_min_ms exceeds listing_delay_max_ms")
	}

	if cfg.Auth.OTPAttempts < 1 {
		res.addErr("auth.otp_attempts must be >= 1")
	}
	if strings.TrimSpace(cfg.Auth.Phone) == "" && strings.TrimSpace(cfg.Auth.KeyringAccount) == "" {
		res.addErr("auth.phone or auth.keyring_account must be set")
	}

	if cfg.Retry.Attempts < 1 {
		res.addErr("retry.attempts must be >= 1")
	}
	if cfg.Retry.BackoffMs < 0 {
		res.addErr("retry.backoff_ms must be >= 0")
	}

	if cfg.Limits.PagesPerSecond <= 0 {
		res.addErr("limits.pages_per_second must be > 0")
	} else if cfg.Limits.PagesPerSecond > 2 {
		res.addWarn("limits.pages_per_second is high (%.1f); the site may rate-limit or block the session", cfg.Limits.PagesPerSecond)
	}
	if cfg.Limits.Burst < 1 {
		res.addErr("limits.burst must be >= 1")
	}

	if cfg.Browser.NavTimeoutSeconds <= 0 {
		res.addErr("browser.nav_timeout_seconds must be > 0")
	}
	if cfg.Browser.WaitTimeoutSeconds <= 0 {
		res.addErr("browser.wait_timeout_seconds must be > 0")
	}

	if strings.TrimSpace(cfg.Export.Output) == "" {
		res.addErr("export.output is required")
	}

	return res
}
