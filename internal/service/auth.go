package service

import (
	"context"
	"errors"

	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/internal/dto"
	apperrors "github.com/ahlanjobb/api/internal/errors"
	"github.com/ahlanjobb/api/internal/model"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/ahlanjobb/api/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService implements registration, sign in and the account recovery flows.
type AuthService struct {
	users         UserStore
	tokens        *TokenService
	hasher        *PasswordHasher
	notifier      *NotificationService
	authenticator *Authenticator
	assertions    *AssertionVerifier

	// compared against when the email is unknown so both paths cost one bcrypt round
	dummyHash string
}

func NewAuthService(users UserStore, tokens *TokenService, hasher *PasswordHasher, notifier *NotificationService, authenticator *Authenticator) (*AuthService, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:         users,
		tokens:        tokens,
		hasher:        hasher,
		notifier:      notifier,
		authenticator: authenticator,
		dummyHash:     dummy,
	}, nil
}

// WithAssertionVerifier enables OAuth sign in through proxy assertions.
// Without one every callback is rejected.
func (s *AuthService) WithAssertionVerifier(v *AssertionVerifier) *AuthService {
	s.assertions = v
	return s
}

func (s *AuthService) hashPassword(plain string) (string, error) {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.ErrPasswordTooLong
		}
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return hash, nil
}

func (s *AuthService) authResponse(user *model.User, message string) (*dto.AuthResponse, error) {
	access, refresh, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return &dto.AuthResponse{
		Message:      message,
		AccessToken:  access,
		RefreshToken: refresh,
		User:         dto.ToUserResponse(user),
	}, nil
}

// Register creates an unverified USER account and mails the verification link.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Register")
	email := model.NormalizeEmail(req.Email)

	logger.InfoWithContext(ctx, "Registering user").
		String("email", email).
		Log()

	if req.PasswordConfirmation != "" && req.PasswordConfirmation != req.Password {
		return nil, apperrors.ErrPasswordMismatch
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	code, err := s.tokens.IssueVerificationCode(email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue verification code").Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Email:            email,
		Password:         hash,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PhoneNumber:      req.PhoneNumber,
		VerificationCode: &code,
		Role:             model.RoleUser,
		Active:           true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailExists) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	// delivery failures are logged by the notifier, the account exists either way
	_ = s.notifier.SendVerification(ctx, user, code)

	logger.InfoWithContext(ctx, "User registered").
		Uint("user_id", user.ID).
		String("email", email).
		Log()

	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// Login checks credentials, then verification, then the active flag.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Login")
	email := model.NormalizeEmail(req.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.Compare(s.dummyHash, req.Password)
			metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
			logger.LogAuth(email, "login", false)
			return nil, apperrors.ErrInvalidCredentials
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		logger.ErrorWithContext(ctx, "Failed to load user").String("email", email).Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !s.hasher.Compare(user.Password, req.Password) {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		logger.LogAuth(email, "login", false)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Verified {
		metrics.LoginAttempts.WithLabelValues("not_verified").Inc()
		logger.WarnWithContext(ctx, "Login refused, email not verified").Uint("user_id", user.ID).Log()
		return nil, apperrors.ErrLoginNotVerified
	}
	if !user.Active {
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		logger.WarnWithContext(ctx, "Login refused, account disabled").Uint("user_id", user.ID).Log()
		return nil, apperrors.ErrAccountInactive
	}

	resp, err := s.authResponse(user, constants.MsgLoggedIn)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	logger.LogAuth(email, "login", true)
	return resp, nil
}

// VerifyUser consumes a verification code and signs the user in.
func (s *AuthService) VerifyUser(ctx context.Context, code string) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "VerifyUser")

	if code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "verification code is required")
	}

	user, err := s.users.GetByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Unknown verification code").Log()
			return nil, apperrors.ErrVerificationCodeNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user.Verified {
		return nil, apperrors.ErrAlreadyVerified
	}
	if email, ok := s.tokens.VerifyVerificationCode(code); !ok || email != user.Email {
		logger.WarnWithContext(ctx, "Expired or mismatched verification code").Uint("user_id", user.ID).Log()
		return nil, apperrors.ErrVerificationCodeNotFound
	}

	if err := s.users.ConsumeVerificationCode(ctx, user.ID, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Verification code already consumed").Uint("user_id", user.ID).Log()
			return nil, apperrors.ErrVerificationCodeNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	user.Verified = true
	user.VerificationCode = nil

	if !user.Active {
		return nil, apperrors.ErrAccountInactive
	}

	logger.InfoWithContext(ctx, "User verified").Uint("user_id", user.ID).Log()
	return s.authResponse(user, constants.MsgVerified)
}

// ResendVerificationCode issues a new code for an unverified account. The
// outcome is never reported to the caller.
func (s *AuthService) ResendVerificationCode(ctx context.Context, email string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "ResendVerificationCode")
	email = model.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.DebugWithContext(ctx, "Resend requested for unknown email").Log()
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user.Verified {
		logger.DebugWithContext(ctx, "Resend requested for verified account").Uint("user_id", user.ID).Log()
		return nil
	}

	code, err := s.tokens.IssueVerificationCode(user.Email)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	_ = s.notifier.SendVerification(ctx, user, code)

	logger.InfoWithContext(ctx, "Verification code reissued").Uint("user_id", user.ID).Log()
	return nil
}

// ForgotPassword mails a reset link to verified, active accounts. Like
// ResendVerificationCode it reveals nothing about the email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "ForgotPassword")
	email = model.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.DebugWithContext(ctx, "Password reset requested for unknown email").Log()
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !user.Verified || !user.Active {
		logger.InfoWithContext(ctx, "Password reset skipped").
			Uint("user_id", user.ID).
			Bool("verified", user.Verified).
			Bool("active", user.Active).
			Log()
		return nil
	}

	code, err := s.tokens.IssuePasswordResetCode(user.Email)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.users.SetPasswordResetCode(ctx, user.ID, code); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	_ = s.notifier.SendPasswordReset(ctx, user, code)

	logger.InfoWithContext(ctx, "Password reset code issued").Uint("user_id", user.ID).Log()
	return nil
}

// ResetPassword consumes a reset code. The code must be the one stored on
// the account, unexpired and issued for that account's email.
func (s *AuthService) ResetPassword(ctx context.Context, code string, req dto.PasswordRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "ResetPassword")

	if code == "" {
		return apperrors.ErrInvalidResetCode
	}
	if req.Password != req.PasswordConfirmation {
		return apperrors.ErrPasswordMismatch
	}

	user, err := s.users.GetByPasswordResetCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Unknown password reset code").Log()
			return apperrors.ErrInvalidResetCode
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if email, ok := s.tokens.VerifyPasswordResetCode(code); !ok || email != user.Email {
		logger.WarnWithContext(ctx, "Expired or mismatched password reset code").Uint("user_id", user.ID).Log()
		return apperrors.ErrInvalidResetCode
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.users.ResetPassword(ctx, user.ID, code, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Password reset code already consumed").Uint("user_id", user.ID).Log()
			return apperrors.ErrInvalidResetCode
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.LogAuth(user.Email, "reset_password", true)
	return nil
}

// NewPassword changes the password of the signed in user.
func (s *AuthService) NewPassword(ctx context.Context, userID uint, req dto.PasswordRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "NewPassword")

	if req.Password != req.PasswordConfirmation {
		return apperrors.ErrPasswordMismatch
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Password changed").Uint("user_id", userID).Log()
	return nil
}

// Me returns the signed in user with media relations loaded.
func (s *AuthService) Me(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Me")

	user, err := s.users.GetByIDWithRelations(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// RefreshAccessToken trades a refresh token for a new access token.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "RefreshAccessToken")

	userID, ok := s.tokens.VerifyRefreshToken(refreshToken)
	if !ok {
		logger.WarnWithContext(ctx, "Invalid refresh token").Log()
		return nil, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !user.Active {
		logger.WarnWithContext(ctx, "Refresh refused, account disabled").Uint("user_id", user.ID).Log()
		return nil, apperrors.ErrInvalidRefreshToken
	}

	token, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return &dto.TokenResponse{Token: token}, nil
}

// OAuthLogin signs in the existing account named by a signed proxy
// assertion. The provider proved the email, so an unverified account is
// marked verified on the way.
func (s *AuthService) OAuthLogin(ctx context.Context, assertion string) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "OAuthLogin")

	profile, ok := s.assertions.Verify(assertion)
	if !ok {
		logger.WarnWithContext(ctx, "OAuth assertion rejected").
			Bool("enabled", s.assertions.Enabled()).
			Log()
		logger.LogAuth("", "oauth_login", false)
		return nil, apperrors.ErrInvalidToken
	}

	result, err := s.authenticator.OAuth().AuthenticateProfile(ctx, profile)
	if err != nil {
		logger.ErrorWithContext(ctx, "OAuth lookup failed").String("provider", profile.Provider).Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !result.OK() {
		logger.InfoWithContext(ctx, "No account for provider identity").
			String("provider", profile.Provider).
			String("reason", result.Reason.String()).
			Log()
		return nil, apperrors.ErrAccountNotFound
	}

	user := result.User
	if !user.Active {
		return nil, apperrors.ErrAccountInactive
	}
	if !user.Verified {
		if err := s.users.SetVerified(ctx, user.ID); err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		user.Verified = true
		user.VerificationCode = nil
	}

	logger.LogAuth(user.Email, "oauth_login:"+profile.Provider, true)
	return s.authResponse(user, constants.MsgLoggedIn)
}
