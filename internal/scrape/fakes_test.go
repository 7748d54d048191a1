package scrape

import (
	"context"
	"log/slog"
	"testing"
)

// fakeSite implements Site with per-test function hooks. Nil hooks
// succeed and do nothing.
type fakeSite struct {
	openLoginFn   func(ctx context.Context) error
	submitPhoneFn func(ctx context.Context, phone string) error
	submitOTPFn   func(ctx context.Context, code string) error
	confirmFn     func(ctx context.Context) error
	searchFn      func(ctx context.Context, keyword string) error
	listingsFn    func(ctx context.Context) ([]ListingHandle, error)
	nextFn        func(ctx context.Context) (bool, error)
	profileFn     func(ctx context.Context, url string) (string, error)

	snapshots []string
}

func (f *fakeSite) OpenLogin(ctx context.Context) error {
	if f.openLoginFn != nil {
		return f.openLoginFn(ctx)
	}
	return nil
}

func (f *fakeSite) SubmitPhone(ctx context.Context, phone string) error {
	if f.submitPhoneFn != nil {
		return f.submitPhoneFn(ctx, phone)
	}
	return nil
}

func (f *fakeSite) SubmitOTP(ctx context.Context, code string) error {
	if f.submitOTPFn != nil {
		return f.submitOTPFn(ctx, code)
	}
	return nil
}

func (f *fakeSite) ConfirmLogin(ctx context.Context) error {
	if f.confirmFn != nil {
		return f.confirmFn(ctx)
	}
	return nil
}

func (f *fakeSite) Search(ctx context.Context, keyword string) error {
	if f.searchFn != nil {
		return f.searchFn(ctx, keyword)
	}
	return nil
}

func (f *fakeSite) Listings(ctx context.Context) ([]ListingHandle, error) {
	if f.listingsFn != nil {
		return f.listingsFn(ctx)
	}
	return nil, nil
}

func (f *fakeSite) NextPage(ctx context.Context) (bool, error) {
	if f.nextFn != nil {
		return f.nextFn(ctx)
	}
	return false, nil
}

func (f *fakeSite) FetchProfile(ctx context.Context, url string) (string, error) {
	if f.profileFn != nil {
		return f.profileFn(ctx, url)
	}
	return "", ErrFieldMissing
}

func (f *fakeSite) Snapshot(ctx context.Context, label string) (string, error) {
	f.snapshots = append(f.snapshots, label)
	return "/tmp/" + label + ".png", nil
}

// fakeListing backs ListingHandle with maps. A missing key means
// ErrFieldMissing; brokenErr, when set, is returned for every lookup.
type fakeListing struct {
	fields      map[string]string
	links       map[string]string
	hiddenPhone string // surfaced into fields after RevealPhone
	revealErr   error
	brokenErr   error
}

func (l *fakeListing) Field(name string) (string, error) {
	if l.brokenErr != nil {
		return "", l.brokenErr
	}
	v, ok := l.fields[name]
	if !ok {
		return "", ErrFieldMissing
	}
	return v, nil
}

func (l *fakeListing) Link(name string) (string, error) {
	if l.brokenErr != nil {
		return "", l.brokenErr
	}
	v, ok := l.links[name]
	if !ok {
		return "", ErrFieldMissing
	}
	return v, nil
}

func (l *fakeListing) RevealPhone(ctx context.Context) error {
	if l.revealErr != nil {
		return l.revealErr
	}
	if l.hiddenPhone != "" {
		if l.fields == nil {
			l.fields = map[string]string{}
		}
		l.fields[FieldPhone] = l.hiddenPhone
	}
	return nil
}

// fakePrompter returns canned codes in order, then repeats the last one.
type fakePrompter struct {
	codes []string
	calls int
}

func (p *fakePrompter) PromptOTP(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	i := p.calls
	p.calls++
	if i >= len(p.codes) {
		i = len(p.codes) - 1
	}
	return p.codes[i], nil
}

// blockingPrompter never answers; it only honors cancellation, like an
// operator who walked away.
type blockingPrompter struct{}

func (blockingPrompter) PromptOTP(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.DiscardHandler)
}

func card(company, title, phone, profile string) *fakeListing {
	fields := map[string]string{}
	links := map[string]string{}
	if company != "" {
		fields[FieldCompany] = company
	}
	if title != "" {
		fields[FieldTitle] = title
	}
	if phone != "" {
		fields[FieldPhone] = phone
	}
	if profile != "" {
		links[FieldProfile] = profile
	}
	return &fakeListing{fields: fields, links: links}
}
