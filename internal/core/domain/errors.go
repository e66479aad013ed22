package domain

import "errors"

// DomainError is a classified failure of a session operation.
// Codes have the form FT-<AREA>-<NNNN>; errors.Is compares codes only,
// so a sentinel matches every copy made with WithDetails or WithCause.
type DomainError struct {
	Code    string
	Message string
	Details string
	Cause   error
}

func (e *DomainError) Error() string {
	msg := "[" + e.Code + "] " + e.Message
	if e.Details == "" {
		return msg
	}
	return msg + ": " + e.Details
}

func (e *DomainError) Unwrap() error { return e.Cause }

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a sentinel.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy carrying details.
func (e *DomainError) WithDetails(details string) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause returns a copy wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// IsDomainError reports whether err wraps a DomainError with code, or any
// DomainError when code is empty.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && (code == "" || de.Code == code)
}

// GetErrorCode returns the code of the first DomainError in err's chain, or "".
func GetErrorCode(err error) string {
	if de := (*DomainError)(nil); errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Authentication Errors (AUTH)

var (
	// ErrInvalidCredentials indicates the login was rejected.
	ErrInvalidCredentials = NewDomainError("FT-AUTH-4010", "invalid email or password")

	// ErrWrongCurrentPassword indicates the current password did not match on change.
	ErrWrongCurrentPassword = NewDomainError("FT-AUTH-4011", "current password is incorrect")

	// ErrWeakPassword indicates the new password was rejected by the password policy.
	ErrWeakPassword = NewDomainError("FT-AUTH-4001", "new password does not meet policy")

	// ErrAccessRejected indicates the server rejected the access token (401/403).
	ErrAccessRejected = NewDomainError("FT-AUTH-4030", "access token rejected")
)

// Session Errors (SESS)

var (
	// ErrRefreshInvalid indicates the refresh token is expired or revoked.
	// Receiving it forces the session to LoggedOut.
	ErrRefreshInvalid = NewDomainError("FT-SESS-4010", "refresh token invalid")

	// ErrUnauthenticated indicates an operation that needs a session was called without one.
	ErrUnauthenticated = NewDomainError("FT-SESS-4011", "not logged in")

	// ErrSessionBusy indicates another token-mutating call is still outstanding.
	ErrSessionBusy = NewDomainError("FT-SESS-4090", "another session operation is in progress")
)

// Profile Errors (PROF)

var (
	// ErrValidation indicates the profile patch was malformed.
	ErrValidation = NewDomainError("FT-PROF-4001", "profile validation failed")
)

// Transport Errors (NET)

var (
	// ErrNetwork indicates a transport failure; the session is unchanged.
	ErrNetwork = NewDomainError("FT-NET-5030", "auth service unreachable")

	// ErrUnexpectedStatus indicates a response status the gateway has no mapping for.
	ErrUnexpectedStatus = NewDomainError("FT-NET-5020", "unexpected response from auth service")
)

// Storage Errors (STOR)

var (
	// ErrStorage indicates the credential store medium failed.
	ErrStorage = NewDomainError("FT-STOR-5001", "credential storage error")

	// ErrCredentialCorrupt indicates the stored record is torn or undecodable.
	ErrCredentialCorrupt = NewDomainError("FT-STOR-5002", "stored credentials are corrupt")
)

// Argument Errors (ARG)

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("FT-ARG-1001", "invalid argument")

	// ErrConfig indicates an invalid client configuration.
	ErrConfig = NewDomainError("FT-ARG-1002", "invalid configuration")
)
