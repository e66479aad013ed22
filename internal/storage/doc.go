// Package storage provides credential persistence for the FinTrack session client.
//
// The package combines three layers:
//
//   - KVEngine: an embedded key-value medium with atomic batches
//     (BadgerEngine on disk, memory.Store in process)
//   - Sealer: optional at-rest encryption of every stored value
//   - CredentialStore: read/replace/clear of the three reserved keys
//     access_token, refresh_token and user_info
//
// A credential record is only ever written, read and cleared as a whole.
// Each value carries the ID of the write that produced it, so a torn
// write on a medium without transactions is detected on read instead of
// being returned as a mismatched session.
package storage
