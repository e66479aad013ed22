package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SessionState is the lifecycle state of the client session.
type SessionState string

const (
	StateLoggedOut SessionState = "logged_out"
	StateLoggedIn  SessionState = "logged_in"
)

// UserID identifies a user. The auth service may send it as a JSON
// number or a JSON string; it is always re-encoded as a string.
type UserID string

// UnmarshalJSON accepts both numeric and string IDs.
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = UserID(n.String())
	return nil
}

// Identity is the denormalized user profile cached with a session.
type Identity struct {
	ID        UserID `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UserType  string `json:"user_type,omitempty"`
}

// DisplayName returns "First Last", falling back to the email.
func (i *Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Email
	}
	return name
}

// Clone returns a copy of the identity, or nil.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Session is the authenticated state held by the session manager.
// A Session is either complete (both tokens and an identity) or absent.
type Session struct {
	AccessToken  string   `json:"-"`
	RefreshToken string   `json:"-"`
	Identity     Identity `json:"identity"`
}

// Clone returns a deep copy of the session, or nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Validate reports whether the session is complete.
func (s *Session) Validate() error {
	var violations []string
	if s.AccessToken == "" {
		violations = append(violations, "access token is empty")
	}
	if s.RefreshToken == "" {
		violations = append(violations, "refresh token is empty")
	}
	if s.Identity.Email == "" {
		violations = append(violations, "identity email is empty")
	}
	if len(violations) > 0 {
		return ErrInvalidArgument.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Record converts the session into its persisted form.
func (s *Session) Record() *CredentialRecord {
	return &CredentialRecord{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		UserInfo:     s.Identity,
	}
}

// CredentialRecord is the persisted serialization of a Session.
// It is stored under three reserved keys: access_token, refresh_token and user_info.
type CredentialRecord struct {
	AccessToken  string
	RefreshToken string
	UserInfo     Identity
}

// Session rebuilds the in-memory session from the record.
func (r *CredentialRecord) Session() *Session {
	return &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Identity:     r.UserInfo,
	}
}

// ProfilePatch holds the self-service profile fields. Email is not patchable.
type ProfilePatch struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate rejects a patch that would blank out the whole name.
func (p ProfilePatch) Validate() error {
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	if first == "" && last == "" {
		return ErrValidation.WithDetails("first_name or last_name is required")
	}
	return nil
}

// ProfileResultKind tags a ProfileUpdateResult.
type ProfileResultKind int

const (
	// ProfileIdentityOnly means the server kept the current tokens.
	ProfileIdentityOnly ProfileResultKind = iota
	// ProfileRotated means the server re-issued tokens along with the profile.
	ProfileRotated
)

// String implements fmt.Stringer.
func (k ProfileResultKind) String() string {
	if k == ProfileRotated {
		return "rotated"
	}
	return "identity_only"
}

// ProfileUpdateResult is the outcome of a profile update.
// Exactly one of IdentityOnly and Rotated is set.
type ProfileUpdateResult struct {
	IdentityOnly *Identity
	Rotated      *Session
}

// IdentityOnlyResult builds a result for an update that kept the tokens.
func IdentityOnlyResult(id *Identity) *ProfileUpdateResult {
	return &ProfileUpdateResult{IdentityOnly: id.Clone()}
}

// RotatedResult builds a result for an update that re-issued tokens.
func RotatedResult(s *Session) *ProfileUpdateResult {
	return &ProfileUpdateResult{Rotated: s.Clone()}
}

// Kind returns which variant the result holds.
func (r *ProfileUpdateResult) Kind() ProfileResultKind {
	if r.Rotated != nil {
		return ProfileRotated
	}
	return ProfileIdentityOnly
}

// Identity returns the updated identity regardless of the variant.
func (r *ProfileUpdateResult) Identity() *Identity {
	if r.Rotated != nil {
		return r.Rotated.Identity.Clone()
	}
	return r.IdentityOnly.Clone()
}

// NameFromEmail derives a display name from the local part of an email.
// "jane.doe@x.com" yields ("Jane", "Doe"); "alice@x.com" yields ("Alice", "").
func NameFromEmail(email string) (first, last string) {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	if plus := strings.IndexByte(local, '+'); plus >= 0 {
		local = local[:plus]
	}
	if local == "" {
		return "", ""
	}

	sep := strings.IndexAny(local, "._-")
	if sep < 0 {
		return capitalize(local), ""
	}
	return capitalize(local[:sep]), capitalize(local[sep+1:])
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
