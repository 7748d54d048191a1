package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"leadmart-engine/internal/domain"
	"leadmart-engine/internal/rank"
)

// EventSink receives pipeline audit events. Implementations must not
// block the run; the sqlite run log is the production sink.
type EventSink interface {
	ListingSkipped(ctx context.Context, page int, reason, snapshot string)
	PageScraped(ctx context.Context, page, found, accepted int)
}

// Runner wires login, extraction, normalization, dedup, scoring, and
// pagination into one strictly sequential collection pass.
type Runner struct {
	Site      Site
	Scorer    rank.Scorer
	Norm      Normalizer
	Extract   Extractor
	Paginator *Paginator
	Retry     RetryPolicy

	// ProfileFallback visits the company profile page when a card lacks
	// phone and email.
	ProfileFallback bool

	// ListingDelayMin/Max bound the polite jitter between listings.
	ListingDelayMin time.Duration
	ListingDelayMax time.Duration

	Events EventSink // optional
	Log    *slog.Logger

	dedupe *Deduper // lazily built; one identity set per Runner
}

// Collect searches the keyword and pages through results until the
// session's target is met or the feed ends. The session must already be
// Authenticated. Collected records survive any error return.
func (r *Runner) Collect(ctx context.Context, sess *Session) error {
	log := r.logger()

	if sess.Auth != domain.Authenticated {
		return fmt.Errorf("session is %s; extraction requires authentication", sess.Auth)
	}

	err := r.Retry.Do(ctx, log, "search", func() error {
		return r.Site.Search(ctx, sess.Keyword)
	})
	if err != nil {
		if path, serr := r.Site.Snapshot(ctx, "search-error"); serr == nil {
			log.Error("search failed", "keyword", sess.Keyword, "snapshot", path, "error", err)
		}
		return fmt.Errorf("search %q: %w", sess.Keyword, err)
	}
	sess.Page = 1

	for {
		r.harvestPage(ctx, sess)

		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled, keeping partial results", "accepted", sess.Accepted())
			return err
		}

		switch r.Paginator.Advance(ctx, sess) {
		case HasMore:
			continue
		case NoMore:
			return nil
		case StepError:
			log.Warn("pagination stopped, keeping partial results", "accepted", sess.Accepted())
			return ctx.Err()
		}
	}
}

// harvestPage extracts, normalizes, dedupes, and scores every listing on
// the current page, stopping early once the target is reached.
func (r *Runner) harvestPage(ctx context.Context, sess *Session) {
	log := r.logger()

	var handles []ListingHandle
	err := r.Retry.Do(ctx, log, "listings", func() error {
		var lerr error
		handles, lerr = r.Site.Listings(ctx)
		return lerr
	})
	if err != nil {
		snapshot := r.snapshot(ctx, fmt.Sprintf("page-%d-listings-error", sess.Page))
		log.Warn("listings unreadable, skipping page", "page", sess.Page, "snapshot", snapshot, "error", err)
		r.emitSkip(ctx, sess.Page, "page-unreadable", snapshot)
		return
	}

	log.Info("processing listings", "page", sess.Page, "found", len(handles))
	acceptedBefore := sess.Accepted()

	for _, h := range handles {
		if sess.TargetReached() {
			break
		}
		if ctx.Err() != nil {
			return
		}
		r.sleepJitter(ctx)
		r.processListing(ctx, sess, h)
	}

	if r.Events != nil {
		r.Events.PageScraped(ctx, sess.Page, len(handles), sess.Accepted()-acceptedBefore)
	}
}

// processListing runs one card through the pipeline. Every failure mode
// is local: count, capture, continue.
func (r *Runner) processListing(ctx context.Context, sess *Session, h ListingHandle) {
	log := r.logger()

	raw, err := r.Extract.Extract(ctx, h)
	if err != nil {
		sess.Skipped++
		snapshot := r.snapshot(ctx, fmt.Sprintf("page-%d-listing-skip", sess.Page))
		log.Warn("listing skipped", "page", sess.Page, "snapshot", snapshot, "error", err)
		r.emitSkip(ctx, sess.Page, "extract-error", snapshot)
		return
	}

	if r.ProfileFallback && !raw.Phone.Present() && !raw.Email.Present() && raw.ProfileURL.Present() {
		if html, perr := r.Site.FetchProfile(ctx, raw.ProfileURL.Value); perr == nil {
			EnrichFromProfile(&raw, html)
		} else {
			log.Debug("profile fallback failed", "url", raw.ProfileURL.Value, "error", perr)
		}
	}

	rec, err := r.Norm.Normalize(raw)
	if err != nil {
		sess.Skipped++
		switch {
		case errors.Is(err, ErrNoCompany):
			log.Debug("listing rejected", "page", sess.Page, "reason", "no-company")
			r.emitSkip(ctx, sess.Page, "no-company", "")
		case errors.Is(err, ErrNoContact):
			log.Debug("listing rejected", "page", sess.Page, "reason", "no-contact")
			r.emitSkip(ctx, sess.Page, "no-contact", "")
		default:
			r.emitSkip(ctx, sess.Page, "normalize-error", "")
		}
		return
	}

	if !r.deduper().IsNew(rec) {
		sess.Dupes++
		log.Debug("duplicate lead dropped", "company", rec.Company)
		return
	}

	rec.Score = r.Scorer.ScoreRecord(sess.Keyword, rec)
	sess.Records = append(sess.Records, rec)
	log.Info("lead collected", "n", sess.Accepted(), "company", rec.Company, "score", rec.Score)
}

func (r *Runner) deduper() *Deduper {
	if r.dedupe == nil {
		r.dedupe = NewDeduper()
	}
	return r.dedupe
}

func (r *Runner) snapshot(ctx context.Context, label string) string {
	path, err := r.Site.Snapshot(ctx, label)
	if err != nil {
		return ""
	}
	return path
}

func (r *Runner) emitSkip(ctx context.Context, page int, reason, snapshot string) {
	if r.Events != nil {
		r.Events.ListingSkipped(ctx, page, reason, snapshot)
	}
}

func (r *Runner) sleepJitter(ctx context.Context) {
	if r.ListingDelayMax <= 0 {
		return
	}
	d := r.ListingDelayMin
	if span := r.ListingDelayMax - r.ListingDelayMin; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}
