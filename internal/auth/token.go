package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenHeader is the response header carrying a freshly issued token.
	TokenHeader = "Jwt-Token"

	defaultTokenTTL = 24 * time.Hour

	tokenIssuer   = "user-portal"
	tokenAudience = "user-portal-api"
)

// Claims are the verified contents of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Authorities []string `json:"authorities"`
}

// TokenProvider issues and verifies HS256 session tokens against a
// process-wide secret. Verification is self-contained: it never consults
// the user store. Expiry is judged on the verifier's own clock, so skew
// between issuer and verifier shortens or stretches the effective lifetime.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenProvider(secret string, ttl time.Duration) *TokenProvider {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &TokenProvider{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the provider's time source. Intended for tests.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	p.now = now
	return p
}

// Issue signs a token for username carrying its authority set.
func (p *TokenProvider) Issue(username string, authorities []string) (string, error) {
	now := p.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Authorities: authorities,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Verify parses and validates raw, returning its claims. It fails with
// ErrTokenExpired when the expiry has elapsed and ErrTokenInvalid for any
// other defect (bad signature, wrong algorithm, malformed input).
func (p *TokenProvider) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
