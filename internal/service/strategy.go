package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahlanjobb/api/internal/model"
	"gorm.io/gorm"
)

// FailureReason says why a strategy produced no user.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonNoToken
	ReasonInvalidToken
	// ReasonNotFound also covers a user whose role the strategy does not accept.
	ReasonNotFound
	ReasonAccountNotFound
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoToken:
		return "no_token"
	case ReasonInvalidToken:
		return "invalid_token"
	case ReasonNotFound:
		return "not_found"
	case ReasonAccountNotFound:
		return "account_not_found"
	}
	return "unknown"
}

// AuthResult is the outcome of a strategy that did not fail with an
// infrastructure error. User is nil exactly when Reason is not ReasonNone.
type AuthResult struct {
	User   *model.User
	Reason FailureReason
}

func (r AuthResult) OK() bool {
	return r.User != nil
}

func success(u *model.User) AuthResult {
	return AuthResult{User: u, Reason: ReasonNone}
}

func failure(reason FailureReason) AuthResult {
	return AuthResult{Reason: reason}
}

// Strategy authenticates a bearer token.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, bearerToken string) (AuthResult, error)
}

// RoleStrategy accepts access tokens whose subject has one of Roles.
type RoleStrategy struct {
	name   string
	roles  []model.Role
	tokens *TokenService
	users  UserStore
}

func NewRoleStrategy(name string, tokens *TokenService, users UserStore, roles ...model.Role) *RoleStrategy {
	return &RoleStrategy{name: name, roles: roles, tokens: tokens, users: users}
}

func (s *RoleStrategy) Name() string {
	return s.name
}

// Accepts reports whether role passes this strategy.
func (s *RoleStrategy) Accepts(role model.Role) bool {
	return role.In(s.roles...)
}

func (s *RoleStrategy) Authenticate(ctx context.Context, bearerToken string) (AuthResult, error) {
	if bearerToken == "" {
		return failure(ReasonNoToken), nil
	}
	userID, ok := s.tokens.VerifyAccessToken(bearerToken)
	if !ok {
		return failure(ReasonInvalidToken), nil
	}

	user, err := s.users.GetByIDAndRoles(ctx, userID, s.roles...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failure(ReasonNotFound), nil
		}
		return AuthResult{}, fmt.Errorf("%s strategy: %w", s.name, err)
	}
	return success(user), nil
}

// ExternalProfile is the identity an OAuth provider vouched for.
type ExternalProfile struct {
	Provider string
	Email    string
}

// EmailStrategy maps a provider identity to an existing account by email.
// It never creates accounts.
type EmailStrategy struct {
	users UserStore
}

func NewEmailStrategy(users UserStore) *EmailStrategy {
	return &EmailStrategy{users: users}
}

func (s *EmailStrategy) Name() string {
	return StrategyOAuth
}

func (s *EmailStrategy) AuthenticateProfile(ctx context.Context, profile ExternalProfile) (AuthResult, error) {
	if profile.Email == "" {
		return failure(ReasonAccountNotFound), nil
	}
	user, err := s.users.GetByEmail(ctx, model.NormalizeEmail(profile.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failure(ReasonAccountNotFound), nil
		}
		return AuthResult{}, fmt.Errorf("oauth strategy: %w", err)
	}
	return success(user), nil
}

// Strategy names
const (
	// StrategyAccount accepts every role. The authorization gate resolves
	// identities with it before any guard runs.
	StrategyAccount = "account"
	StrategyUser    = "user"
	StrategyStaff   = "staff"
	StrategyAdmin   = "admin"
	StrategyOAuth   = "oauth"
)

// Authenticator holds the configured strategies. It is built once at startup
// and handed to whoever needs it.
type Authenticator struct {
	strategies map[string]*RoleStrategy
	oauth      *EmailStrategy
}

// NewAuthenticator wires the account, user, staff and admin token strategies
// and the OAuth email strategy.
func NewAuthenticator(tokens *TokenService, users UserStore) *Authenticator {
	a := &Authenticator{
		strategies: map[string]*RoleStrategy{},
		oauth:      NewEmailStrategy(users),
	}
	for _, s := range []*RoleStrategy{
		NewRoleStrategy(StrategyAccount, tokens, users, model.RoleAdmin, model.RoleCompanyManager, model.RoleEmployee, model.RoleUser),
		NewRoleStrategy(StrategyUser, tokens, users, model.RoleUser),
		NewRoleStrategy(StrategyStaff, tokens, users, model.StaffRoles...),
		NewRoleStrategy(StrategyAdmin, tokens, users, model.RoleAdmin),
	} {
		a.strategies[s.Name()] = s
	}
	return a
}

// Strategy returns the named token strategy.
func (a *Authenticator) Strategy(name string) (Strategy, bool) {
	s, ok := a.strategies[name]
	if !ok {
		return nil, false
	}
	return s, true
}

// Identify resolves a bearer token to an account of any role.
func (a *Authenticator) Identify(ctx context.Context, bearerToken string) (AuthResult, error) {
	return a.strategies[StrategyAccount].Authenticate(ctx, bearerToken)
}

// Accepts reports whether the named strategy admits role. Unknown names
// admit nobody.
func (a *Authenticator) Accepts(name string, role model.Role) bool {
	s, ok := a.strategies[name]
	return ok && s.Accepts(role)
}

func (a *Authenticator) OAuth() *EmailStrategy {
	return a.oauth
}
