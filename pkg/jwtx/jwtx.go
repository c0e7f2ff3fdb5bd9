package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the default lifetime of a login session token.
const DefaultSessionTTL = time.Hour

// Caller roles carried in session tokens. Handlers gate routes on these.
const (
	RoleOrganization = "organization"
	RoleVoter        = "voter"
)

var (
	ErrInvalidToken = errors.New("jwtx: invalid token")
	ErrExpiredToken = errors.New("jwtx: token expired")
)

// Claims are the session-token claims. The Actor ID identifies the logged-in
// organization or voter; services receive it as an explicit parameter, they
// never read it from ambient request state.
type Claims struct {
	jwt.RegisteredClaims

	// ActorID is the database ID of the organization or voter.
	ActorID string `json:"act,omitempty"`

	// Role is either "organization" or "voter".
	Role string `json:"role,omitempty"`
}

// Signer mints and verifies HS256 session tokens with a shared secret.
type Signer struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Mint creates a signed session token for the given actor.
// Subject is the human-facing login identity (email or voter code).
func (s *Signer) Mint(subject, actorID, role string) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Audience:  jwt.ClaimStrings{s.Audience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ActorID: actorID,
		Role:    role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// Verify parses and validates a session token, returning its claims.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.Secret, nil
	}, jwt.WithIssuer(s.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
