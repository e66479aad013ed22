// Package logger provides structured logging for the FinTrack session client.
//
// It wraps the standard library log/slog to provide structured JSON or
// text logging with automatic redaction of credentials.
//
// Features:
//   - JSON structured logging (default), text, or console (text without
//     timestamps, for interactive stderr)
//   - Redaction of attributes whose key names a credential
//     (password, token, secret, passphrase, authorization ...)
//   - Masking of JWT-shaped values under any key
//   - Context-aware logging with request ID propagation
//   - Strict level and format parsing, shared with config validation
//   - Dynamic level adjustment
package logger
