// Package adaptive provides authenticated encryption with automatic
// algorithm selection.
//
// Supported Algorithms:
//
//   - AES-256-GCM: preferred on amd64/arm64 where Go uses hardware AES
//   - ChaCha20-Poly1305: fallback for other architectures
//
// The nonce is generated per call and prepended to the ciphertext, so a
// sealed value is self-contained.
//
// Usage:
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Seal(plaintext, aad)
//	plaintext, err := c.Open(sealed, aad)
package adaptive
