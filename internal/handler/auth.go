package handler

import (
	"net/http"

	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/internal/dto"
	"github.com/ahlanjobb/api/internal/service"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates an unverified account and mails its verification link.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	user, err := h.authService.Register(ctx, req)
	if err != nil {
		respondError(ctx, c, "Registration", err)
		return
	}

	logger.InfoWithContext(ctx, "User registered").
		Uint("user_id", user.ID).
		Log()

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgRegistered))
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	response, err := h.authService.Login(ctx, req)
	if err != nil {
		respondError(ctx, c, "Login", err)
		return
	}

	logger.InfoWithContext(ctx, "User logged in successfully").
		Uint("user_id", response.User.ID).
		Log()

	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) VerifyUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "VerifyUser")

	response, err := h.authService.VerifyUser(ctx, c.Query("verificationCode"))
	if err != nil {
		respondError(ctx, c, "Verification", err)
		return
	}

	logger.InfoWithContext(ctx, "User verified").
		Uint("user_id", response.User.ID).
		Log()

	c.JSON(http.StatusOK, response)
}

// ResendVerificationCode answers with the same message whether or not the
// email belongs to an account.
func (h *AuthHandler) ResendVerificationCode(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ResendVerificationCode")

	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	if err := h.authService.ResendVerificationCode(ctx, req.Email); err != nil {
		respondError(ctx, c, "Resend verification", err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgVerificationSent))
}

// ForgotPassword answers with the same message whether or not the email
// belongs to an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ForgotPassword")

	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	if err := h.authService.ForgotPassword(ctx, req.Email); err != nil {
		respondError(ctx, c, "Forgot password", err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgPasswordResetSent))
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ResetPassword")

	var req dto.PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	if err := h.authService.ResetPassword(ctx, c.Query("passwordResetCode"), req); err != nil {
		respondError(ctx, c, "Password reset", err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgPasswordReset))
}

// NewPassword changes the password of the signed in user.
func (h *AuthHandler) NewPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "NewPassword")

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	if err := h.authService.NewPassword(ctx, user.ID, req); err != nil {
		respondError(ctx, c, "Password change", err)
		return
	}

	logger.InfoWithContext(ctx, "Password changed").
		Uint("user_id", user.ID).
		Log()

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgPasswordChanged))
}

func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Me")

	user, ok := currentUser(c)
	if !ok {
		return
	}

	response, err := h.authService.Me(ctx, user.ID)
	if err != nil {
		respondError(ctx, c, "Fetch current user", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Token exchanges a refresh token for a new access token.
func (h *AuthHandler) Token(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Token")

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	logger.DebugWithContext(ctx, "Token refresh attempt").
		Int("token_length", len(req.RefreshToken)).
		Log()

	response, err := h.authService.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		respondError(ctx, c, "Token refresh", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// OAuthCallback signs in the account named by the upstream proxy's signed
// assertion.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "OAuthCallback")

	var req dto.OAuthCallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	logger.InfoWithContext(ctx, "OAuth callback").
		Int("assertion_length", len(req.Assertion)).
		Log()

	response, err := h.authService.OAuthLogin(ctx, req.Assertion)
	if err != nil {
		respondError(ctx, c, "OAuth sign in", err)
		return
	}

	c.JSON(http.StatusOK, response)
}
