package scrape

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
)

// StepResult is the outcome of one pagination step.
type StepResult int

const (
	HasMore StepResult = iota // advanced; more listings are loading
	NoMore                    // target met, no further page, or ceiling hit
	StepError                 // cancelled; stop and keep what was collected
)

func (s StepResult) String() string {
	switch s {
	case HasMore:
		return "has-more"
	case NoMore:
		return "no-more"
	case StepError:
		return "error"
	}
	return "unknown"
}

// Paginator drives "next page" steps. Transient failures retry with the
// shared bounded policy; exhausting retries degrades to NoMore so the run
// exports whatever was collected instead of aborting.
type Paginator struct {
	Site  Site
	Retry RetryPolicy

	// MaxPages is the safety valve against a page-end condition that is
	// never detected.
	MaxPages int

	// Limiter paces page loads. Nil disables pacing.
	Limiter *rate.Limiter

	Log *slog.Logger
}

// Advance performs one pagination step for the session.
func (p *Paginator) Advance(ctx context.Context, sess *Session) StepResult {
	log := p.logger()

	if sess.TargetReached() {
		log.Info("lead target reached", "accepted", sess.Accepted(), "target", sess.MinLeads)
		return NoMore
	}
	if p.MaxPages > 0 && sess.Page >= p.MaxPages {
		log.Warn("page ceiling reached", "pages", sess.Page, "ceiling", p.MaxPages)
		return NoMore
	}

	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return StepError
		}
	}

	var more bool
	err := p.Retry.Do(ctx, log, "paginate.next", func() error {
		ok, err := p.Site.NextPage(ctx)
		if err != nil {
			return err
		}
		more = ok
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return StepError
		}
		// Degrade: a page that will not load is treated as the end of
		// the feed, not a failed run.
		if path, serr := p.Site.Snapshot(ctx, "paginate-error"); serr == nil {
			log.Warn("pagination retries exhausted, stopping", "page", sess.Page, "snapshot", path, "error", err)
		} else {
			log.Warn("pagination retries exhausted, stopping", "page", sess.Page, "error", err)
		}
		return NoMore
	}
	if !more {
		log.Info("no further pages", "page", sess.Page)
		return NoMore
	}

	sess.Page++
	return HasMore
}

func (p *Paginator) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}
