// Package gateway provides the HTTP client for the FinTrack auth surface.
//
// The client maps the four auth operations onto the remote API:
//
//	POST /auth/login            {email, password}
//	POST /auth/refresh          {refresh_token}
//	PUT  /auth/change-password  {current_password, new_password}
//	PUT  /users/me              {first_name, last_name}
//
// It holds no tokens and never retries. Authenticated calls take the
// bearer token as an argument, and every failure is reported as a
// *domain.DomainError the session manager can switch on.
package gateway
