package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/fintrack-go/pkg/crypto/adaptive"
)

// Sealing errors.
var (
	ErrPassphraseTooWeak = errors.New("storage: passphrase too weak (minimum 8 characters)")
	ErrUnseal            = errors.New("storage: cannot decrypt value - wrong passphrase or corrupted data")
)

const (
	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the salt length used in key derivation.
	SaltLength = 16

	// SaltKey holds the key-derivation salt. It sits outside the reserved credential keys.
	SaltKey = "credential_salt"

	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	hkdfInfo = "fintrack credential store v1"
)

// Sealer protects values at rest. The storage key is bound to each value
// so a sealed value cannot be moved to another slot.
type Sealer interface {
	Seal(key string, value []byte) ([]byte, error)
	Open(key string, sealed []byte) ([]byte, error)
}

// PlainSealer stores values unchanged.
type PlainSealer struct{}

// Seal returns value unchanged.
func (PlainSealer) Seal(_ string, value []byte) ([]byte, error) { return value, nil }

// Open returns sealed unchanged.
func (PlainSealer) Open(_ string, sealed []byte) ([]byte, error) { return sealed, nil }

// CipherSealer seals values with an adaptive AEAD cipher.
type CipherSealer struct {
	cipher *adaptive.Cipher
}

// NewCipherSealer wraps a ready cipher.
func NewCipherSealer(c *adaptive.Cipher) *CipherSealer {
	return &CipherSealer{cipher: c}
}

// Seal encrypts value with the key name as additional data.
func (s *CipherSealer) Seal(key string, value []byte) ([]byte, error) {
	return s.cipher.Seal(value, []byte(key))
}

// Open decrypts a value sealed under the same key name.
func (s *CipherSealer) Open(key string, sealed []byte) ([]byte, error) {
	out, err := s.cipher.Open(sealed, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnseal, err)
	}
	return out, nil
}

// NewPassphraseSealer derives a sealing key from passphrase and the salt
// stored in engine, creating the salt on first use.
func NewPassphraseSealer(ctx context.Context, engine KVEngine, passphrase []byte) (*CipherSealer, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}

	salt, err := loadOrCreateSalt(ctx, engine)
	if err != nil {
		return nil, err
	}

	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	c, err := adaptive.New(key)
	if err != nil {
		return nil, fmt.Errorf("storage: create cipher: %w", err)
	}
	return NewCipherSealer(c), nil
}

// DeriveKey stretches passphrase with Argon2id and expands it with HKDF-SHA256
// into a key for the adaptive cipher.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("storage: salt must be %d bytes", SaltLength)
	}

	master := argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, adaptive.KeySize)

	key := make([]byte, adaptive.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("storage: derive key: %w", err)
	}
	return key, nil
}

func loadOrCreateSalt(ctx context.Context, engine KVEngine) ([]byte, error) {
	salt, err := engine.Get(ctx, []byte(SaltKey))
	if err == nil {
		if len(salt) != SaltLength {
			return nil, fmt.Errorf("storage: stored salt has length %d", len(salt))
		}
		return salt, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("storage: read salt: %w", err)
	}

	salt = make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("storage: generate salt: %w", err)
	}
	if err := engine.Set(ctx, []byte(SaltKey), salt); err != nil {
		return nil, fmt.Errorf("storage: write salt: %w", err)
	}
	return salt, nil
}
