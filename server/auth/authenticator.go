// Package auth verifies the bearer tokens the messaging client presents to
// the webhook gateway.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is written into every gateway token.
	Issuer = "arisu"
	// Audience scopes gateway tokens to the webhook API.
	Audience = "arisu.gateway"
	// KeyID identifies the signing key version in the token header.
	KeyID = "v1"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// ClaimsMessage is the payload of a gateway token.
type ClaimsMessage struct {
	// Client names the messaging client the token was issued to.
	Client string `json:"client"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 gateway tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// GenerateToken issues a token for client. A zero ttl issues a token that never expires.
func (a *Authenticator) GenerateToken(client string, ttl time.Duration) (string, error) {
	issuedAt := a.now()
	claims := &ClaimsMessage{
		Client: client,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   Issuer,
			Audience: jwt.ClaimStrings{Audience},
			Subject:  client,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = KeyID
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies an Authorization header value of the form "Bearer <token>".
func (a *Authenticator) Authenticate(authHeader string) (*ClaimsMessage, error) {
	token, ok := extractBearer(authHeader)
	if !ok {
		return nil, ErrMissingToken
	}

	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if kid, ok := t.Header["kid"].(string); ok && kid != KeyID {
			return nil, fmt.Errorf("unexpected kid: %v", t.Header["kid"])
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func extractBearer(authHeader string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
