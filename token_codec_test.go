package auth_test

import (
	"encoding/base64"
	"testing"
	"time"

	auth "github.com/ravenlist/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codecSecret = []byte("0123456789abcdef0123456789abcdef")

func TestTokenCodecRoundTrip(t *testing.T) {
	codec, err := auth.NewTokenCodec(codecSecret)
	require.NoError(t, err)

	token, err := codec.Sign("4162cbf0-0b23-44a1-9fd1-5b3a71f183d1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	payload, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "4162cbf0-0b23-44a1-9fd1-5b3a71f183d1", payload)
}

func TestTokenCodecSecretTooShort(t *testing.T) {
	_, err := auth.NewTokenCodec([]byte("short"))
	require.Error(t, err)
}

func TestTokenCodecSignRejectsBadInput(t *testing.T) {
	codec, err := auth.NewTokenCodec(codecSecret)
	require.NoError(t, err)

	_, err = codec.Sign("", time.Hour)
	assert.Error(t, err, "empty payload")

	_, err = codec.Sign("user|123", time.Hour)
	assert.Error(t, err, "payload containing separator")

	_, err = codec.Sign("user-1", 0)
	assert.Error(t, err, "zero TTL")

	_, err = codec.Sign("user-1", -time.Minute)
	assert.Error(t, err, "negative TTL")
}

func TestTokenCodecExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now
	codec, err := auth.NewTokenCodec(codecSecret, auth.WithCodecClock(func() time.Time {
		return current
	}))
	require.NoError(t, err)

	token, err := codec.Sign("user-1", time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.NoError(t, err)

	current = now.Add(59 * time.Minute)
	_, err = codec.Verify(token)
	require.NoError(t, err)

	current = now.Add(time.Hour)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken, "expiry instant counts as expired")

	current = now.Add(2 * time.Hour)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenCodecTamperedTokens(t *testing.T) {
	codec, err := auth.NewTokenCodec(codecSecret)
	require.NoError(t, err)

	token, err := codec.Sign("user-1", time.Hour)
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)

	// flipping any byte of the decoded token must invalidate it
	for i := range decoded {
		tampered := make([]byte, len(decoded))
		copy(tampered, decoded)
		tampered[i] ^= 0x01

		_, err := codec.Verify(base64.RawURLEncoding.EncodeToString(tampered))
		assert.ErrorIs(t, err, auth.ErrInvalidToken, "byte %d", i)
	}
}

func TestTokenCodecWrongSecret(t *testing.T) {
	signer, err := auth.NewTokenCodec(codecSecret)
	require.NoError(t, err)

	verifier, err := auth.NewTokenCodec([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	token, err := signer.Sign("user-1", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenCodecMalformedInput(t *testing.T) {
	codec, err := auth.NewTokenCodec(codecSecret)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"too few fields", base64.RawURLEncoding.EncodeToString([]byte("payload|123"))},
		{"too many fields", base64.RawURLEncoding.EncodeToString([]byte("a|b|c|d"))},
		{"non hex signature", base64.RawURLEncoding.EncodeToString([]byte("payload|123|zzzz"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Verify(tc.token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}
