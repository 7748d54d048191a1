package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Selectors is the site-specific CSS surface. Everything the pipeline knows
// about the marketplace DOM lives here so markup drift is a config edit,
// not a code change.
type Selectors struct {
	Login   LoginSelectors  `yaml:"login"`
	Search  SearchSelectors `yaml:"search"`
	Results ResultSelectors `yaml:"results"`
}

type LoginSelectors struct {
	PhoneInput     string `yaml:"phone_input"`
	SendOTPButton  string `yaml:"send_otp_button"`
	OTPInput       string `yaml:"otp_input"`
	VerifyButton   string `yaml:"verify_button"`
	LoggedInMarker string `yaml:"logged_in_marker"`
	InvalidNumber  string `yaml:"invalid_number"`
	InvalidOTP     string `yaml:"invalid_otp"`
}

type SearchSelectors struct {
	Input        string `yaml:"input"`
	Button       string `yaml:"button"`
	SubmitButton string `yaml:"submit_button"`
}

type ResultSelectors struct {
	Container   string `yaml:"container"`
	Card        string `yaml:"card"`
	Title       string `yaml:"title"`
	TitleLink   string `yaml:"title_link"`
	Price       string `yaml:"price"`
	Company     string `yaml:"company"`
	CompanyLink string `yaml:"company_link"`
	Location    string `yaml:"location"`
	FullAddress string `yaml:"full_address"`
	Phone       string `yaml:"phone"`
	PhoneReveal string `yaml:"phone_reveal"`
	Catalog     string `yaml:"catalog"`
	NextPage    string `yaml:"next_page"`
}

type Config struct {
	Site struct {
		LoginURL  string    `yaml:"login_url"`
		SearchURL string    `yaml:"search_url"`
		Selectors Selectors `yaml:"selectors"`
	} `yaml:"site"`

	Auth struct {
		Phone          string `yaml:"phone"`           // fallback; keyring preferred
		KeyringAccount string `yaml:"keyring_account"` // empty disables keyring lookup
		OTPAttempts    int    `yaml:"otp_attempts"`
		OTPWaitSeconds int    `yaml:"otp_wait_seconds"` // 0 = wait for the operator forever
	} `yaml:"auth"`

	Scrape struct {
		MinLeads          int  `yaml:"min_leads"`
		MaxPages          int  `yaml:"max_pages"`
		RequireContact    bool `yaml:"require_contact"`  // drop leads with no phone/email/profile
		ProfileFallback   bool `yaml:"profile_fallback"` // visit profile pages for missing contacts
		ListingDelayMinMs int  `yaml:"listing_delay_min_ms"`
		ListingDelayMaxMs int  `yaml:"listing_delay_max_ms"`
	} `yaml:"scrape"`

	Retry struct {
		Attempts    int  `yaml:"attempts"`
		BackoffMs   int  `yaml:"backoff_ms"`
		Exponential bool `yaml:"exponential"`
	} `yaml:"retry"`

	Limits struct {
		PagesPerSecond float64 `yaml:"pages_per_second"`
		Burst          int     `yaml:"burst"`
	} `yaml:"limits"`

	Browser struct {
		Headless           bool   `yaml:"headless"`
		Stealth            bool   `yaml:"stealth"`
		NavTimeoutSeconds  int    `yaml:"nav_timeout_seconds"`
		WaitTimeoutSeconds int    `yaml:"wait_timeout_seconds"`
		SnapshotDir        string `yaml:"snapshot_dir"`
	} `yaml:"browser"`

	Export struct {
		Output string `yaml:"output"`
	} `yaml:"export"`
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Default returns a runnable config minus the site selectors and the
// operator phone number, which the shipped config.yml provides.
func Default() Config {
	var cfg Config
	cfg.Auth.OTPAttempts = 3
	cfg.Scrape.MinLeads = 25
	cfg.Scrape.MaxPages = 40
	cfg.Scrape.ProfileFallback = true
	cfg.Scrape.ListingDelayMinMs = 500
	cfg.Scrape.ListingDelayMaxMs = 1500
	cfg.Retry.Attempts = 3
	cfg.Retry.BackoffMs = 2000
	cfg.Limits.PagesPerSecond = 0.5
	cfg.Limits.Burst = 1
	cfg.Browser.NavTimeoutSeconds = 30
	cfg.Browser.WaitTimeoutSeconds = 15
	cfg.Browser.SnapshotDir = "snapshots"
	cfg.Export.Output = "leads.csv"
	return cfg
}

// Durations derived from the integer fields, so callers don't repeat the
// unit conversions.

func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.Retry.BackoffMs) * time.Millisecond
}

func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Browser.NavTimeoutSeconds) * time.Second
}

func (c Config) WaitTimeout() time.Duration {
	return time.Duration(c.Browser.WaitTimeoutSeconds) * time.Second
}

func (c Config) OTPWait() time.Duration {
	return time.Duration(c.Auth.OTPWaitSeconds) * time.Second
}

func (c Config) ListingDelayMin() time.Duration {
	return time.Duration(c.Scrape.ListingDelayMinMs) * time.Millisecond
}

func (c Config) ListingDelayMax() time.Duration {
	return time.Duration(c.Scrape.ListingDelayMaxMs) * time.Millisecond
}
