package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/ahlanjobb/api/config"
	"github.com/golang-jwt/jwt/v5"
)

// TokenKind separates the four token families so one cannot stand in for another.
type TokenKind string

const (
	TokenKindAccess        TokenKind = "access"
	TokenKindRefresh       TokenKind = "refresh"
	TokenKindVerification  TokenKind = "verification"
	TokenKindPasswordReset TokenKind = "password_reset"
)

// TokenPayload is what gets signed. Access and refresh tokens carry the user
// id, verification and reset codes carry the email.
type TokenPayload struct {
	UserID uint
	Email  string
	Kind   TokenKind
}

type TokenClaims struct {
	Email string    `json:"email,omitempty"`
	Kind  TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *TokenClaims) UserID() (uint, bool) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

type TokenService struct {
	secret []byte
	ttl    map[TokenKind]time.Duration
	now    func() time.Time
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{
		secret: []byte(cfg.Secret),
		ttl: map[TokenKind]time.Duration{
			TokenKindAccess:        cfg.AccessTokenTTL,
			TokenKindRefresh:       cfg.RefreshTokenTTL,
			TokenKindVerification:  cfg.VerificationCodeTTL,
			TokenKindPasswordReset: cfg.PasswordResetCodeTTL,
		},
		now: time.Now,
	}
}

// WithClock returns a copy of the service reading time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// TTL returns the configured lifetime of kind.
func (s *TokenService) TTL(kind TokenKind) time.Duration {
	return s.ttl[kind]
}

// Issue signs payload with an expiry of ttl from now.
func (s *TokenService) Issue(payload TokenPayload, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	now := s.now()
	claims := TokenClaims{
		Email: payload.Email,
		Kind:  payload.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if payload.UserID != 0 {
		claims.Subject = strconv.FormatUint(uint64(payload.UserID), 10)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the claims of a well-formed, correctly signed, unexpired
// token. Every failure is reported the same way.
func (s *TokenService) Verify(tokenString string) (*TokenClaims, bool) {
	if tokenString == "" {
		return nil, false
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}

	return claims, true
}

func (s *TokenService) verifyKind(tokenString string, kind TokenKind) (*TokenClaims, bool) {
	claims, ok := s.Verify(tokenString)
	if !ok || claims.Kind != kind {
		return nil, false
	}
	return claims, true
}

func (s *TokenService) IssueAccessToken(userID uint) (string, error) {
	return s.Issue(TokenPayload{UserID: userID, Kind: TokenKindAccess}, s.ttl[TokenKindAccess])
}

func (s *TokenService) IssueRefreshToken(userID uint) (string, error) {
	return s.Issue(TokenPayload{UserID: userID, Kind: TokenKindRefresh}, s.ttl[TokenKindRefresh])
}

func (s *TokenService) IssueVerificationCode(email string) (string, error) {
	return s.Issue(TokenPayload{Email: email, Kind: TokenKindVerification}, s.ttl[TokenKindVerification])
}

func (s *TokenService) IssuePasswordResetCode(email string) (string, error) {
	return s.Issue(TokenPayload{Email: email, Kind: TokenKindPasswordReset}, s.ttl[TokenKindPasswordReset])
}

// VerifyAccessToken returns the subject user id of a valid access token.
func (s *TokenService) VerifyAccessToken(tokenString string) (uint, bool) {
	claims, ok := s.verifyKind(tokenString, TokenKindAccess)
	if !ok {
		return 0, false
	}
	return claims.UserID()
}

// VerifyRefreshToken returns the subject user id of a valid refresh token.
func (s *TokenService) VerifyRefreshToken(tokenString string) (uint, bool) {
	claims, ok := s.verifyKind(tokenString, TokenKindRefresh)
	if !ok {
		return 0, false
	}
	return claims.UserID()
}

func (s *TokenService) VerifyVerificationCode(code string) (string, bool) {
	claims, ok := s.verifyKind(code, TokenKindVerification)
	if !ok {
		return "", false
	}
	return claims.Email, true
}

func (s *TokenService) VerifyPasswordResetCode(code string) (string, bool) {
	claims, ok := s.verifyKind(code, TokenKindPasswordReset)
	if !ok {
		return "", false
	}
	return claims.Email, true
}

// IssuePair returns a fresh access and refresh token for userID.
func (s *TokenService) IssuePair(userID uint) (string, string, error) {
	access, err := s.IssueAccessToken(userID)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.IssueRefreshToken(userID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
