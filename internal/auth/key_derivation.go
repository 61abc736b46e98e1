package auth

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// DerivedKeyLength is the length of derived keys in bytes (32 bytes = 256 bits for HMAC-SHA256)
	DerivedKeyLength = 32

	purposeAdminJWT = "storefront-admin-jwt-v1"
	purposeCSRF     = "storefront-csrf-v1"
)

var ErrInvalidMasterSecret = errors.New("master secret cannot be empty")

// DeriveKey derives a 32-byte key from masterSecret using HKDF-SHA256. Keys
// derived for different purposes are independent.
func DeriveKey(masterSecret []byte, purpose string) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, ErrInvalidMasterSecret
	}

	// salt=nil is acceptable per RFC 5869
	reader := hkdf.New(sha256.New, masterSecret, nil, []byte(purpose))

	derivedKey := make([]byte, DerivedKeyLength)
	if _, err := io.ReadFull(reader, derivedKey); err != nil {
		return nil, err
	}
	return derivedKey, nil
}

// DeriveAdminJWTKey derives the key that signs admin session tokens.
func DeriveAdminJWTKey(masterSecret []byte) ([]byte, error) {
	return DeriveKey(masterSecret, purposeAdminJWT)
}

// DeriveCSRFKey derives the gorilla/csrf authentication key when no explicit
// CSRF key is configured.
func DeriveCSRFKey(masterSecret []byte) ([]byte, error) {
	return DeriveKey(masterSecret, purposeCSRF)
}
