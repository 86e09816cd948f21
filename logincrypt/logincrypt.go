// Package logincrypt seals the login-state cookie value.
//
// Cookie format (version 1):
//
//	base64url_nopad( 0x01 || nonce[24] || XChaCha20-Poly1305(key, nonce, plaintext, aad=0x01) )
//
// The 256-bit key is derived from the configured login-state secret with
// HKDF-SHA256. A fresh random nonce is drawn for every call, so the same
// plaintext never seals to the same value twice.
package logincrypt

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// MinSecretLength is the shortest login-state secret accepted.
	MinSecretLength = 32

	formatV1 byte = 0x01

	keySalt = "go-tenant-auth/login-state"
	keyInfo = "v1"
)

var (
	// ErrDecrypt is returned for every decryption failure: malformed input,
	// unknown version, truncation, tampering or the wrong secret.
	ErrDecrypt = errors.New("login state could not be decrypted")

	// ErrWeakSecret is returned when the secret is shorter than MinSecretLength.
	ErrWeakSecret = fmt.Errorf("login state secret must be at least %d characters", MinSecretLength)
)

var encoding = base64.RawURLEncoding

// Encrypt seals plaintext with a key derived from secret and returns a
// URL and cookie safe token.
func Encrypt(plaintext []byte, secret string) (string, error) {
	aead, err := newAEAD(secret)
	if err != nil {
		return "", err
	}

	out := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	out[0] = formatV1
	nonce := out[1:]
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("[logincrypt Encrypt] failed to generate nonce: %w", err)
	}

	out = aead.Seal(out, nonce, plaintext, []byte{formatV1})
	return encoding.EncodeToString(out), nil
}

// Decrypt opens a token produced by Encrypt. It never returns partial
// plaintext: any failure yields ErrDecrypt.
func Decrypt(token string, secret string) ([]byte, error) {
	aead, err := newAEAD(secret)
	if err != nil {
		return nil, err
	}

	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, ErrDecrypt
	}
	if len(raw) < 1+chacha20poly1305.NonceSizeX+aead.Overhead() || raw[0] != formatV1 {
		return nil, ErrDecrypt
	}

	nonce := raw[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := raw[1+chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte{formatV1})
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newAEAD(secret string) (cipher.AEAD, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), []byte(keySalt), []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("[logincrypt] failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("[logincrypt] failed to create cipher: %w", err)
	}
	return aead, nil
}
