// Package token mints and verifies room access tokens. The claim shape
// follows the LiveKit access-token layout so media-server deployments accept
// the same JWT the websocket endpoint checks.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingCredentials is returned when the signing key pair is not
	// configured.
	ErrMissingCredentials = errors.New("api key and secret are not configured")

	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("invalid token")
)

// VideoGrants mirrors the media-server grant block.
type VideoGrants struct {
	Room         string `json:"room"`
	RoomJoin     bool   `json:"roomJoin"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

// Claims is the full token payload.
type Claims struct {
	jwt.RegisteredClaims
	Video    VideoGrants `json:"video"`
	Metadata string      `json:"metadata,omitempty"`
}

// Manager signs and verifies access tokens with an HMAC key pair.
type Manager struct {
	apiKey    string
	apiSecret string
}

// NewManager creates a token manager. Credentials may be empty; Mint and
// Verify then fail with ErrMissingCredentials.
func NewManager(apiKey, apiSecret string) *Manager {
	return &Manager{apiKey: apiKey, apiSecret: apiSecret}
}

// Configured reports whether a signing key pair is present.
func (m *Manager) Configured() bool {
	return m.apiKey != "" && m.apiSecret != ""
}

// Mint issues a token granting join, publish and subscribe in one room.
func (m *Manager) Mint(room, identity, metadata string, ttl time.Duration) (string, error) {
	if !m.Configured() {
		return "", ErrMissingCredentials
	}
	if ttl < time.Hour {
		ttl = time.Hour
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Video: VideoGrants{
			Room:         room,
			RoomJoin:     true,
			CanPublish:   true,
			CanSubscribe: true,
		},
		Metadata: metadata,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(m.apiSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims, rejecting bad signatures,
// wrong algorithms and expired tokens.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if !m.Configured() {
		return nil, ErrMissingCredentials
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.apiSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
