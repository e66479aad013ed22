package gateway

import "github.com/yndnr/fintrack-go/internal/core/domain"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the success body of POST /auth/login.
type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         domain.Identity `json:"user"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse is the success body of POST /auth/refresh.
// RefreshToken is empty when the server did not rotate it.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ChangePasswordRequest is the body of PUT /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ProfileRequest is the body of PUT /users/me.
type ProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileData echoes the stored profile fields.
type ProfileData struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// ProfileResponse is the success body of PUT /users/me.
// The tokens are present only when the server re-issued them.
type ProfileResponse struct {
	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	Data         ProfileData `json:"data"`
}

// HasTokens reports whether the server re-issued at least one token.
func (r *ProfileResponse) HasTokens() bool {
	return r.AccessToken != "" || r.RefreshToken != ""
}
