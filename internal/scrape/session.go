package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leadmart-engine/internal/domain"
)

// LoginController walks the OTP authentication state machine:
//
//	Unauthenticated -> OtpRequested -> OtpPending -> Authenticated
//
// with a terminal Failed(reason) from any state. Transient page failures
// retry the current transition only; the machine never restarts.
type LoginController struct {
	Site   Site
	Prompt OTPPrompter
	Retry  RetryPolicy

	// OTPAttempts bounds operator re-entry of a rejected code.
	OTPAttempts int
	// OTPWait caps the human-input suspension. Zero waits indefinitely.
	OTPWait time.Duration

	Log *slog.Logger
}

// Login drives the session from Unauthenticated to Authenticated or to a
// terminal AuthFailed with the cause recorded on the session.
func (c *LoginController) Login(ctx context.Context, sess *Session, phone string) error {
	log := c.logger()
	sess.Auth = domain.Unauthenticated

	// Unauthenticated -> OtpRequested: open the form, submit the number.
	err := c.Retry.Do(ctx, log, "login.submit-phone", func() error {
		if err := c.Site.OpenLogin(ctx); err != nil {
			return err
		}
		if err := c.Site.SubmitPhone(ctx, phone); err != nil {
			if errors.Is(err, ErrPhoneRejected) {
				return Permanent(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPhoneRejected) {
			return c.fail(ctx, sess, domain.FailSubmissionRejected, err)
		}
		return c.fail(ctx, sess, domain.FailNavigation, err)
	}
	sess.Auth = domain.OtpRequested
	log.Info("otp requested", "phone", maskPhone(phone))

	// OtpRequested -> OtpPending -> Authenticated, with bounded re-entry.
	attempts := c.OTPAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		sess.Auth = domain.OtpPending

		code, err := c.promptOTP(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return c.fail(ctx, sess, domain.FailOTPTimeout, err)
			}
			return c.fail(ctx, sess, domain.FailNavigation, err)
		}

		err = c.Retry.Do(ctx, log, "login.verify-otp", func() error {
			if err := c.Site.SubmitOTP(ctx, code); err != nil {
				if errors.Is(err, ErrOTPRejected) {
					return Permanent(err)
				}
				return err
			}
			if err := c.Site.ConfirmLogin(ctx); err != nil {
				if errors.Is(err, ErrNotLoggedIn) {
					return Permanent(ErrOTPRejected)
				}
				return err
			}
			return nil
		})
		if err == nil {
			sess.Auth = domain.Authenticated
			log.Info("login confirmed")
			return nil
		}
		if errors.Is(err, ErrOTPRejected) {
			log.Warn("one-time code rejected", "attempt", i, "of", attempts)
			continue
		}
		return c.fail(ctx, sess, domain.FailNavigation, err)
	}

	return c.fail(ctx, sess, domain.FailOTPRejected,
		fmt.Errorf("one-time code rejected %d times: %w", attempts, ErrOTPRejected))
}

// promptOTP suspends for the operator, bounded by OTPWait when configured.
func (c *LoginController) promptOTP(ctx context.Context) (string, error) {
	if c.OTPWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.OTPWait)
		defer cancel()
	}
	return c.Prompt.PromptOTP(ctx)
}

func (c *LoginController) fail(ctx context.Context, sess *Session, reason domain.FailReason, err error) error {
	sess.Auth = domain.AuthFailed
	sess.FailCause = reason

	if path, serr := c.Site.Snapshot(ctx, "login-"+string(reason)); serr == nil {
		c.logger().Error("login failed", "reason", reason, "snapshot", path, "error", err)
	} else {
		c.logger().Error("login failed", "reason", reason, "error", err)
	}
	return fmt.Errorf("login failed (%s): %w", reason, err)
}

func (c *LoginController) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

// maskPhone keeps logs free of the full operator number.
func maskPhone(p string) string {
	if len(p) <= 4 {
		return "****"
	}
	return "******" + p[len(p)-4:]
}
