package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AssertionAudience scopes proxy assertions so no other token signed
	// with the same key is accepted as one.
	AssertionAudience = "ahlanjobs-oauth"

	maxAssertionLifetime = 5 * time.Minute
)

// AssertionClaims is the identity the OAuth proxy vouches for after it has
// completed the provider exchange.
type AssertionClaims struct {
	Email    string `json:"email"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// AssertionVerifier checks short lived HS256 assertions minted by the
// upstream OAuth proxy with a secret shared only with it. A verifier without
// a secret rejects everything.
type AssertionVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewAssertionVerifier(secret string) *AssertionVerifier {
	return &AssertionVerifier{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy reading time from now.
func (v *AssertionVerifier) WithClock(now func() time.Time) *AssertionVerifier {
	cp := *v
	cp.now = now
	return &cp
}

// Enabled reports whether a shared secret is configured.
func (v *AssertionVerifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify returns the profile carried by a valid assertion.
func (v *AssertionVerifier) Verify(assertion string) (ExternalProfile, bool) {
	if !v.Enabled() || assertion == "" {
		return ExternalProfile{}, false
	}

	claims := &AssertionClaims{}
	token, err := jwt.ParseWithClaims(assertion, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AssertionAudience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !token.Valid {
		return ExternalProfile{}, false
	}
	if claims.IssuedAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) > maxAssertionLifetime {
		return ExternalProfile{}, false
	}
	if claims.Email == "" || claims.Provider == "" {
		return ExternalProfile{}, false
	}

	return ExternalProfile{Provider: claims.Provider, Email: claims.Email}, true
}
