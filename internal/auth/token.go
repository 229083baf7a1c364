package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// magicLinkTokenLen is the byte length of magic-link token material.
	magicLinkTokenLen = 32
	// refreshSecretLen is the byte length of refresh secret material.
	refreshSecretLen = 32
)

var (
	// ErrInvalidToken indicates a token that failed verification.
	ErrInvalidToken = errors.New("invalid token")
)

// MagicLinkToken is a freshly minted one-time sign-in credential.
// Plaintext exists only in memory; storage and the API response carry
// the hash.
type MagicLinkToken struct {
	Plaintext string
	Hash      string
}

// NewMagicLinkToken generates a magic-link token and its storage hash.
func NewMagicLinkToken() (*MagicLinkToken, error) {
	raw := make([]byte, magicLinkTokenLen)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate magic-link token: %w", err)
	}

	plaintext := hex.EncodeToString(raw)

	return &MagicLinkToken{
		Plaintext: plaintext,
		Hash:      TokenHash(plaintext),
	}, nil
}

// NewRefreshSecret generates the random material for a refresh token.
// The caller stores the argon2id hash and hands the plaintext out once.
func NewRefreshSecret() (string, error) {
	raw := make([]byte, refreshSecretLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// AccessClaims are the JWT claims carried by an access token.
type AccessClaims struct {
	Email string `json:"email,omitempty"`
	Tier  string `json:"tier"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer with the signing secret and
// access-token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the access-token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Mint signs an access token for the given user.
func (i *TokenIssuer) Mint(userID, email, tier string) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		Email: email,
		Tier:  tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "patlas",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates an access token, returning its claims.
func (i *TokenIssuer) Verify(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithIssuer("patlas"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
