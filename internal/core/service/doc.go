// Package service provides the session manager for the FinTrack client.
//
// SessionManager is the single source of truth for whether the user is
// authenticated and as whom. It is the only component that mints, rotates
// or discards tokens, and it exclusively owns the credential record.
//
// Lifecycle:
//
//	LoggedOut --Login/Restore--> LoggedIn
//	LoggedIn  --Login/Refresh/UpdateProfile--> LoggedIn
//	LoggedIn  --Logout, Refresh rejected--> LoggedOut
//
// Login, Refresh and UpdateProfile share one in-flight guard: a second
// token-mutating call fails fast with domain.ErrSessionBusy. Once a
// request is sent it is never abandoned; a caller that stops waiting gets
// ctx.Err() while the response is still applied in the background.
package service
