package logincrypt_test

import (
	"encoding/base64"
	"testing"

	"github.com/jrsteele09/go-tenant-auth/logincrypt"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-very-long-login-state-secret-0123456789"

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	plaintexts := [][]byte{
		[]byte(`{"state":"abc","codeVerifier":"xyz"}`),
		[]byte(""),
		make([]byte, 4096),
	}

	for _, pt := range plaintexts {
		token, err := logincrypt.Encrypt(pt, testSecret)
		require.NoError(t, err)

		got, err := logincrypt.Decrypt(token, testSecret)
		require.NoError(t, err)
		require.Equal(t, len(pt), len(got))
		if len(pt) > 0 {
			require.Equal(t, pt, got)
		}
	}
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	pt := []byte("same plaintext")

	first, err := logincrypt.Encrypt(pt, testSecret)
	require.NoError(t, err)
	second, err := logincrypt.Encrypt(pt, testSecret)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestDecrypt_FailsClosed(t *testing.T) {
	token, err := logincrypt.Encrypt([]byte("login state"), testSecret)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := logincrypt.Decrypt(token, "another-login-state-secret-9876543210")
		require.ErrorIs(t, err, logincrypt.ErrDecrypt)
	})

	t.Run("every flipped bit", func(t *testing.T) {
		for i := range raw {
			for bit := 0; bit < 8; bit++ {
				tampered := append([]byte(nil), raw...)
				tampered[i] ^= 1 << bit
				got, err := logincrypt.Decrypt(base64.RawURLEncoding.EncodeToString(tampered), testSecret)
				require.ErrorIs(t, err, logincrypt.ErrDecrypt)
				require.Nil(t, got)
			}
		}
	})

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, 1, 10, 25, len(raw) - 1} {
			_, err := logincrypt.Decrypt(base64.RawURLEncoding.EncodeToString(raw[:n]), testSecret)
			require.ErrorIs(t, err, logincrypt.ErrDecrypt)
		}
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := logincrypt.Decrypt("%%%not-a-token%%%", testSecret)
		require.ErrorIs(t, err, logincrypt.ErrDecrypt)
	})
}

func TestWeakSecretRejected(t *testing.T) {
	_, err := logincrypt.Encrypt([]byte("x"), "short")
	require.ErrorIs(t, err, logincrypt.ErrWeakSecret)

	_, err = logincrypt.Decrypt("anything", "short")
	require.ErrorIs(t, err, logincrypt.ErrWeakSecret)
}
