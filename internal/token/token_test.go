package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndVerifyRoundTrip(t *testing.T) {
	m := NewManager("devkey", "devsecret-devsecret-devsecret")

	signed, err := m.Mint("restaurant-voice-order", "guest-abc", "", 6*time.Hour)
	require.NoError(t, err)

	claims, err := m.Verify(signed)
	require.NoError(t, err)

	assert.Equal(t, "devkey", claims.Issuer)
	assert.Equal(t, "guest-abc", claims.Subject)
	assert.Equal(t, "restaurant-voice-order", claims.Video.Room)
	assert.True(t, claims.Video.RoomJoin)
	assert.True(t, claims.Video.CanPublish)
	assert.True(t, claims.Video.CanSubscribe)
}

func TestMintWithoutCredentials(t *testing.T) {
	m := NewManager("", "")

	_, err := m.Mint("room", "guest", "", time.Hour)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestMintEnforcesMinimumTTL(t *testing.T) {
	m := NewManager("devkey", "devsecret-devsecret-devsecret")

	signed, err := m.Mint("room", "guest", "", 0)
	require.NoError(t, err)

	claims, err := m.Verify(signed)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := NewManager("devkey", "secret-one").Mint("room", "guest", "", time.Hour)
	require.NoError(t, err)

	_, err = NewManager("devkey", "secret-two").Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager("devkey", "devsecret")

	_, err := m.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("devkey", "devsecret")

	// Mint clamps TTL up to an hour, so sign the expired token by hand.
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "devkey",
			Subject:   "guest",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Video: VideoGrants{Room: "room", RoomJoin: true},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("devsecret"))
	require.NoError(t, err)

	_, err = m.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMintCarriesMetadata(t *testing.T) {
	m := NewManager("devkey", "devsecret")

	signed, err := m.Mint("room", "guest", `{"table":"7"}`, time.Hour)
	require.NoError(t, err)

	claims, err := m.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, `{"table":"7"}`, claims.Metadata)
}
