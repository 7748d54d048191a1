package domain

// AuthState is the login controller's state. Extraction must never run
// before Authenticated.
type AuthState int

const (
	Unauthenticated AuthState = iota
	OtpRequested              // phone submitted, code on its way
	OtpPending                // waiting for the operator to type the code
	Authenticated
	AuthFailed // terminal; see FailReason
)

func (s AuthState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case OtpRequested:
		return "otp-requested"
	case OtpPending:
		return "otp-pending"
	case Authenticated:
		return "authenticated"
	case AuthFailed:
		return "failed"
	}
	return "unknown"
}

// FailReason says why the login controller gave up.
type FailReason string

const (
	FailSubmissionRejected FailReason = "submission-rejected"
	FailOTPTimeout         FailReason = "otp-timeout"
	FailOTPRejected        FailReason = "otp-rejected"
	FailNavigation         FailReason = "navigation-error"
)
