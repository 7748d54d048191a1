// Command leadmart logs into the marketplace with a one-time code,
// collects leads for a keyword, and writes them as a ranked CSV.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"golang.org/x/time/rate"

	"leadmart-engine/internal/browser"
	"leadmart-engine/internal/config"
	"leadmart-engine/internal/export"
	"leadmart-engine/internal/rank"
	"leadmart-engine/internal/scrape"
	"leadmart-engine/internal/secrets"
	"leadmart-engine/internal/store"
)

func main() {
	var (
		keyword  = flag.String("keyword", "", "product keyword to collect leads for")
		minLeads = flag.Int("min-leads", 0, "override the configured lead target")
		output   = flag.String("output", "", "override the configured CSV path")
		dataDir  = flag.String("data-dir", "", "data directory (default $LEADMART_DATA_DIR or .)")
		headless = flag.Bool("headless", false, "run Chrome headless regardless of config")
		setPhone = flag.String("set-phone", "", "store the login number in the OS keychain and exit")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	dir := *dataDir
	if dir == "" {
		dir = os.Getenv("LEADMART_DATA_DIR")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fatal(log, "data dir", err)
	}

	userCfgPath, err := config.EnsureUserConfig(dir, filepath.Join("config", "config.yml"))
	if err != nil {
		fatal(log, "config bootstrap", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		fatal(log, "config load", err)
	}
	if *minLeads > 0 {
		cfg.Scrape.MinLeads = *minLeads
	}
	if *output != "" {
		cfg.Export.Output = *output
	}
	if *headless {
		cfg.Browser.Headless = true
	}

	if *setPhone != "" {
		acct := cfg.Auth.KeyringAccount
		if acct == "" {
			acct = secrets.DefaultAccount(cfg)
		}
		if err := secrets.SetLoginPhone(acct, *setPhone); err != nil {
			fatal(log, "store phone", err)
		}
		log.Info("login number stored", "account", acct)
		return
	}

	v := config.Validate(cfg)
	for _, w := range v.Warnings {
		log.Warn("config", "warning", w)
	}
	if !v.OK() {
		fatal(log, "config invalid", v)
	}

	if *keyword == "" {
		fmt.Fprintln(os.Stderr, "usage: leadmart -keyword \"solar panel\" [-min-leads N] [-output leads.csv]")
		os.Exit(2)
	}

	os.Exit(run(log, cfg, dir, *keyword))
}

func run(log *slog.Logger, cfg config.Config, dataDir, keyword string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One scrape at a time per data dir; two browsers fighting over one
	// login session trip the site's abuse checks.
	lock := flock.New(filepath.Join(dataDir, "leadmart.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		log.Error("lock", "error", err)
		return 1
	}
	if !ok {
		log.Error("another run is already active in this data dir")
		return 1
	}
	defer func() { _ = lock.Unlock() }()

	phone, err := secrets.GetLoginPhone(cfg)
	if err != nil {
		log.Error("login number", "error", err)
		return 1
	}

	db, err := store.Open(filepath.Join(dataDir, "leadmart.db"))
	if err != nil {
		log.Error("audit db", "error", err)
		return 1
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Error("audit migrate", "error", err)
		return 1
	}
	audit, err := store.StartRun(db, keyword)
	if err != nil {
		log.Error("audit run", "error", err)
		return 1
	}

	mgr := browser.NewManager(cfg, log)
	if err := mgr.Start(ctx); err != nil {
		log.Error("browser", "error", err)
		_ = audit.Finish("error", 0, 0, 0, 0)
		return 1
	}
	defer mgr.Close()

	site := browser.NewMarketplace(mgr, cfg, log)
	defer site.Close()

	retry := scrape.RetryPolicy{
		Attempts:    cfg.Retry.Attempts,
		Backoff:     cfg.RetryBackoff(),
		Exponential: cfg.Retry.Exponential,
	}
	sess := &scrape.Session{Keyword: keyword, MinLeads: cfg.Scrape.MinLeads}

	login := &scrape.LoginController{
		Site:        site,
		Prompt:      stdinPrompter{},
		Retry:       retry,
		OTPAttempts: cfg.Auth.OTPAttempts,
		OTPWait:     cfg.OTPWait(),
		Log:         log,
	}
	if err := login.Login(ctx, sess, phone); err != nil {
		_ = audit.Finish("auth-failed", 0, 0, 0, 0)
		log.Error("aborting", "cause", sess.FailCause)
		return 1
	}

	runner := &scrape.Runner{
		Site:    site,
		Scorer:  rank.WeightedScorer{},
		Norm:    scrape.Normalizer{RequireContact: cfg.Scrape.RequireContact},
		Extract: scrape.Extractor{Log: log},
		Paginator: &scrape.Paginator{
			Site:     site,
			Retry:    retry,
			MaxPages: cfg.Scrape.MaxPages,
			Limiter:  rate.NewLimiter(rate.Limit(cfg.Limits.PagesPerSecond), cfg.Limits.Burst),
			Log:      log,
		},
		Retry:           retry,
		ProfileFallback: cfg.Scrape.ProfileFallback,
		ListingDelayMin: cfg.ListingDelayMin(),
		ListingDelayMax: cfg.ListingDelayMax(),
		Events:          audit,
		Log:             log,
	}

	collectErr := runner.Collect(ctx, sess)
	outcome := "ok"
	switch {
	case errors.Is(collectErr, context.Canceled):
		outcome = "cancelled"
	case collectErr != nil:
		outcome = "error"
	}

	// Losing a completed scrape is worse than a failed page: an export
	// error is fatal even though collection succeeded.
	var exportErr error
	if sess.Accepted() > 0 {
		if exportErr = export.WriteCSV(sess.Records, cfg.Export.Output); exportErr != nil {
			log.Error("export", "error", exportErr)
			outcome = "error"
		} else {
			log.Info("export written", "path", cfg.Export.Output, "leads", sess.Accepted())
		}
	}

	_ = audit.Finish(outcome, sess.Page, sess.Accepted(), sess.Skipped, sess.Dupes)

	if exportErr != nil {
		return 1
	}

	if collectErr != nil {
		log.Warn("run ended early", "error", collectErr,
			"accepted", sess.Accepted(), "skipped", sess.Skipped, "dupes", sess.Dupes)
	}
	if sess.Accepted() == 0 {
		log.Error("no leads collected")
		return 1
	}
	if !sess.TargetReached() {
		log.Warn("finished under target", "accepted", sess.Accepted(), "target", sess.MinLeads)
	}
	return 0
}

// stdinPrompter reads the one-time code from the terminal.
type stdinPrompter struct{}

func (stdinPrompter) PromptOTP(ctx context.Context) (string, error) {
	fmt.Fprint(os.Stderr, "enter the one-time code sent to your phone: ")

	type res struct {
		line string
		err  error
	}
	ch := make(chan res, 1)
	go func() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		ch <- res{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		return strings.TrimSpace(r.line), nil
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

var _ scrape.OTPPrompter = stdinPrompter{}
