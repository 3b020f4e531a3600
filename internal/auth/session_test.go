package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init("1h"))
	id := uuid.New()

	token, err := CreateJWT(id, "alice")
	require.NoError(t, err)

	gotID, name, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "alice", name)
}

func TestRejectsForeignAndTamperedTokens(t *testing.T) {
	require.NoError(t, Init("never"))
	token, err := CreateJWT(uuid.New(), "bob")
	require.NoError(t, err)

	_, _, err = AuthenticateJWT(token + "x")
	require.ErrorIs(t, err, ErrInvalidToken)

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.New().String()})
	signed, err := hs.SignedString([]byte("shared-secret"))
	require.NoError(t, err)
	_, _, err = AuthenticateJWT(signed)
	require.ErrorIs(t, err, ErrInvalidToken)

	// A token from before a key rotation no longer verifies.
	require.NoError(t, Init("never"))
	_, _, err = AuthenticateJWT(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	require.NoError(t, Init("never"))
	claims := PlayerClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(privateKey)
	require.NoError(t, err)

	_, _, err = AuthenticateJWT(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpireTime(t *testing.T) {
	for _, s := range []string{"", "0", "never"} {
		d, err := ParseTokenExpireTime(s)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := ParseTokenExpireTime("72h")
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, d)

	_, err = ParseTokenExpireTime("soon")
	require.Error(t, err)
}
