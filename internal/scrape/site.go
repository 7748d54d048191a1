package scrape

import (
	"context"
	"errors"

	"leadmart-engine/internal/domain"
)

// Site is the capability surface the pipeline drives. The real
// implementation lives in internal/browser; tests use fakes.
type Site interface {
	// OpenLogin navigates to the login form.
	OpenLogin(ctx context.Context) error
	// SubmitPhone types the operator's number and requests an OTP.
	// Returns ErrPhoneRejected when the site flags the number.
	SubmitPhone(ctx context.Context, phone string) error
	// SubmitOTP types a code and confirms it. Returns ErrOTPRejected
	// when the site flags the code as invalid or expired.
	SubmitOTP(ctx context.Context, code string) error
	// ConfirmLogin checks for the post-login marker element.
	ConfirmLogin(ctx context.Context) error

	// Search issues the keyword search and lands on the results page.
	Search(ctx context.Context, keyword string) error
	// Listings returns handles for the cards currently rendered.
	Listings(ctx context.Context) ([]ListingHandle, error)
	// NextPage advances to the next results page. ok=false means the
	// site offers no further page.
	NextPage(ctx context.Context) (ok bool, err error)

	// FetchProfile loads a company profile page and returns its HTML.
	// Used as a fallback when contact fields are missing on the card.
	FetchProfile(ctx context.Context, url string) (string, error)

	// Snapshot captures a diagnostic page snapshot labelled by stage.
	// Best effort: returns the stored path, or an error that callers log
	// and move past.
	Snapshot(ctx context.Context, label string) (string, error)
}

// ListingHandle reads fields off one rendered listing card.
type ListingHandle interface {
	// Field returns the text of a named field. ErrFieldMissing when the
	// card has no such element; other errors mean the handle itself is
	// broken (detached node, dead tab).
	Field(name string) (string, error)
	// Link returns the href of a named link field.
	Link(name string) (string, error)
	// RevealPhone clicks the "view number" control, if the card has one.
	RevealPhone(ctx context.Context) error
}

// Field names understood by ListingHandle implementations.
const (
	FieldTitle    = "title"
	FieldCompany  = "company"
	FieldPrice    = "price"
	FieldLocation = "location"
	FieldAddress  = "address"
	FieldPhone    = "phone"
	FieldCatalog  = "catalog"
	FieldProfile  = "profile"
)

var (
	// ErrFieldMissing reports a field whose element is not on the card.
	ErrFieldMissing = errors.New("field not present on listing")
	// ErrPhoneRejected reports the site refusing the login number.
	ErrPhoneRejected = errors.New("login number rejected by site")
	// ErrOTPRejected reports an invalid or expired one-time code.
	ErrOTPRejected = errors.New("one-time code rejected by site")
	// ErrNotLoggedIn reports a missing post-login marker.
	ErrNotLoggedIn = errors.New("post-login marker not found")
)

// OTPPrompter asks the operator for the one-time code. The CLI reads
// stdin; tests return canned codes.
type OTPPrompter interface {
	PromptOTP(ctx context.Context) (string, error)
}

// Session is one keyword run over one authenticated browser session.
type Session struct {
	Keyword  string
	MinLeads int

	Auth      domain.AuthState
	FailCause domain.FailReason

	Records []domain.LeadRecord // discovery order; exporter re-sorts
	Page    int                 // 1-based page cursor

	Skipped int // listings dropped by extraction or normalization
	Dupes   int // listings dropped by the deduper
}

// Accepted is the number of deduped, validated records collected so far.
func (s *Session) Accepted() int { return len(s.Records) }

// TargetReached reports whether the minimum-lead target is met.
func (s *Session) TargetReached() bool { return len(s.Records) >= s.MinLeads }
