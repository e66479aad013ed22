// Package domain defines the core domain models for the FinTrack session client.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Session: the authenticated token pair plus cached Identity
//   - CredentialRecord: the persisted form of a Session
//   - ProfilePatch and ProfileUpdateResult: self-service profile edits
//   - Errors: domain error kinds shared by every layer
package domain
