package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAssertionSecret = "proxy-shared-secret"

// signAssertion mints what the OAuth proxy would send after a completed
// provider exchange.
func signAssertion(t *testing.T, secret string, claims AssertionClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func proxyClaims(email string, issued time.Time, ttl time.Duration) AssertionClaims {
	return AssertionClaims{
		Email:    email,
		Provider: "google",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{AssertionAudience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}
}

func TestAssertionVerifier(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := NewAssertionVerifier(testAssertionSecret).WithClock(func() time.Time { return now })
	tokens := NewTokenService(testAuthConfig())
	access, err := tokens.IssueAccessToken(1)
	require.NoError(t, err)

	noAudience := proxyClaims("a@example.com", now, time.Minute)
	noAudience.Audience = nil
	noProvider := proxyClaims("a@example.com", now, time.Minute)
	noProvider.Provider = ""

	tests := []struct {
		name      string
		assertion string
		wantOK    bool
	}{
		{"valid", signAssertion(t, testAssertionSecret, proxyClaims("a@example.com", now, time.Minute)), true},
		{"empty", "", false},
		{"bare email", "a@example.com", false},
		{"wrong secret", signAssertion(t, "someone-else", proxyClaims("a@example.com", now, time.Minute)), false},
		{"access token", access, false},
		{"expired", signAssertion(t, testAssertionSecret, proxyClaims("a@example.com", now.Add(-10*time.Minute), time.Minute)), false},
		{"too long lived", signAssertion(t, testAssertionSecret, proxyClaims("a@example.com", now, time.Hour)), false},
		{"missing audience", signAssertion(t, testAssertionSecret, noAudience), false},
		{"missing provider", signAssertion(t, testAssertionSecret, noProvider), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, ok := v.Verify(tt.assertion)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, ExternalProfile{Provider: "google", Email: "a@example.com"}, profile)
			}
		})
	}
}

func TestAssertionVerifier_DisabledWithoutSecret(t *testing.T) {
	v := NewAssertionVerifier("")
	assert.False(t, v.Enabled())

	_, ok := v.Verify(signAssertion(t, testAssertionSecret, proxyClaims("a@example.com", time.Now(), time.Minute)))
	assert.False(t, ok)

	var unset *AssertionVerifier
	_, ok = unset.Verify("anything")
	assert.False(t, ok)
}
