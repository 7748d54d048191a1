package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadmart-engine/internal/domain"
)

func newController(site Site, prompt OTPPrompter, t *testing.T) *LoginController {
	return &LoginController{
		Site:        site,
		Prompt:      prompt,
		Retry:       RetryPolicy{Attempts: 3, Backoff: time.Millisecond},
		OTPAttempts: 3,
		Log:         testLogger(t),
	}
}

func TestLogin_HappyPath(t *testing.T) {
	site := &fakeSite{
		submitOTPFn: func(_ context.Context, code string) error {
			if code != "1234" {
				return ErrOTPRejected
			}
			return nil
		},
	}
	c := newController(site, &fakePrompter{codes: []string{"1234"}}, t)

	sess := &Session{Keyword: "solar panel", MinLeads: 5}
	if err := c.Login(context.Background(), sess, "9876543210"); err != nil {
		t.Fatal(err)
	}
	if sess.Auth != domain.Authenticated {
		t.Fatalf("auth = %v, want Authenticated", sess.Auth)
	}
}

func TestLogin_WrongCodeThriceFails(t *testing.T) {
	site := &fakeSite{
		submitOTPFn: func(_ context.Context, code string) error {
			return ErrOTPRejected
		},
	}
	prompt := &fakePrompter{codes: []string{"0000"}}
	c := newController(site, prompt, t)

	sess := &Session{}
	err := c.Login(context.Background(), sess, "9876543210")
	if err == nil {
		t.Fatal("expected failure")
	}
	if sess.Auth != domain.AuthFailed {
		t.Fatalf("auth = %v, want AuthFailed", sess.Auth)
	}
	if sess.FailCause != domain.FailOTPRejected {
		t.Fatalf("cause = %q, want otp-rejected", sess.FailCause)
	}
	if prompt.calls != 3 {
		t.Fatalf("operator prompted %d times, want 3", prompt.calls)
	}
}

func TestLogin_CorrectCodeBeforeBudgetExhausts(t *testing.T) {
	site := &fakeSite{
		submitOTPFn: func(_ context.Context, code string) error {
			if code != "4321" {
				return ErrOTPRejected
			}
			return nil
		},
	}
	c := newController(site, &fakePrompter{codes: []string{"1111", "4321"}}, t)

	sess := &Session{}
	if err := c.Login(context.Background(), sess, "9876543210"); err != nil {
		t.Fatal(err)
	}
	if sess.Auth != domain.Authenticated {
		t.Fatalf("auth = %v, want Authenticated", sess.Auth)
	}
}

func TestLogin_PhoneRejectedIsTerminal(t *testing.T) {
	calls := 0
	site := &fakeSite{
		submitPhoneFn: func(_ context.Context, phone string) error {
			calls++
			return ErrPhoneRejected
		},
	}
	c := newController(site, &fakePrompter{codes: []string{"1234"}}, t)

	sess := &Session{}
	err := c.Login(context.Background(), sess, "12")
	if err == nil {
		t.Fatal("expected failure")
	}
	if sess.FailCause != domain.FailSubmissionRejected {
		t.Fatalf("cause = %q, want submission-rejected", sess.FailCause)
	}
	if calls != 1 {
		t.Fatalf("phone submitted %d times, want 1 (rejection is permanent)", calls)
	}
}

func TestLogin_TransientNavRetriesCurrentTransition(t *testing.T) {
	openCalls := 0
	site := &fakeSite{
		openLoginFn: func(_ context.Context) error {
			openCalls++
			if openCalls < 3 {
				return errors.New("page load timeout")
			}
			return nil
		},
	}
	c := newController(site, &fakePrompter{codes: []string{"1234"}}, t)

	sess := &Session{}
	if err := c.Login(context.Background(), sess, "9876543210"); err != nil {
		t.Fatal(err)
	}
	if openCalls != 3 {
		t.Fatalf("open called %d times, want 3", openCalls)
	}
	if sess.Auth != domain.Authenticated {
		t.Fatalf("auth = %v, want Authenticated", sess.Auth)
	}
}

func TestLogin_NavRetriesExhaustedFails(t *testing.T) {
	site := &fakeSite{
		openLoginFn: func(_ context.Context) error {
			return errors.New("page load timeout")
		},
	}
	c := newController(site, &fakePrompter{codes: []string{"1234"}}, t)

	sess := &Session{}
	if err := c.Login(context.Background(), sess, "9876543210"); err == nil {
		t.Fatal("expected failure")
	}
	if sess.FailCause != domain.FailNavigation {
		t.Fatalf("cause = %q, want navigation-error", sess.FailCause)
	}
}

func TestLogin_OTPWaitTimeout(t *testing.T) {
	c := newController(&fakeSite{}, blockingPrompter{}, t)
	c.OTPWait = 20 * time.Millisecond

	sess := &Session{}
	err := c.Login(context.Background(), sess, "9876543210")
	if err == nil {
		t.Fatal("expected timeout failure")
	}
	if sess.FailCause != domain.FailOTPTimeout {
		t.Fatalf("cause = %q, want otp-timeout", sess.FailCause)
	}
}

func TestLogin_MarkerMissingCountsAsRejectedCode(t *testing.T) {
	site := &fakeSite{
		confirmFn: func(_ context.Context) error { return ErrNotLoggedIn },
	}
	c := newController(site, &fakePrompter{codes: []string{"1234"}}, t)

	sess := &Session{}
	if err := c.Login(context.Background(), sess, "9876543210"); err == nil {
		t.Fatal("expected failure")
	}
	if sess.FailCause != domain.FailOTPRejected {
		t.Fatalf("cause = %q, want otp-rejected", sess.FailCause)
	}
}
