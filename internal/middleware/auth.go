package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ahlanjobb/api/internal/constants"
	apperrors "github.com/ahlanjobb/api/internal/errors"
	"github.com/ahlanjobb/api/internal/model"
	"github.com/ahlanjobb/api/internal/service"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/ahlanjobb/api/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the caller identity and enforces role guards.
type AuthMiddleware struct {
	authenticator *service.Authenticator
}

func NewAuthMiddleware(authenticator *service.Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// bearerToken extracts the token of a "Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	if len(header) <= len(constants.BearerPrefix) || !strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(constants.BearerPrefix):])
	return token, token != ""
}

func (m *AuthMiddleware) reject(c *gin.Context, outcome string, domainErr *apperrors.DomainError) {
	metrics.AuthGateDecisions.WithLabelValues(outcome).Inc()
	logger.WarnWithContext(c.Request.Context(), "Request rejected by authorization gate").
		String("outcome", outcome).
		Method(c.Request.Method).
		Path(c.Request.URL.Path).
		Log()
	c.AbortWithStatusJSON(apperrors.ToHTTPStatus(domainErr), constants.BuildCodedErrorResponse(domainErr.Code, domainErr.Message))
}

// Deserialize runs on every API route. Requests without an Authorization
// header continue anonymously; anything else must resolve to an active,
// verified account or the request stops here.
func (m *AuthMiddleware) Deserialize() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(constants.HeaderAuthorization)
		if header == "" {
			metrics.AuthGateDecisions.WithLabelValues("anonymous").Inc()
			c.Next()
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			m.reject(c, "malformed_header", apperrors.ErrInvalidToken)
			return
		}

		ctx := c.Request.Context()
		result, err := m.authenticator.Identify(ctx, token)
		if err != nil {
			metrics.AuthGateDecisions.WithLabelValues("error").Inc()
			logger.ErrorWithContext(ctx, "Failed to resolve identity").Err(err).Log()
			c.AbortWithStatusJSON(http.StatusInternalServerError, constants.BuildCodedErrorResponse(apperrors.ErrInternal.Code, constants.MsgInternalError))
			return
		}

		switch {
		case result.Reason == service.ReasonInvalidToken:
			m.reject(c, "invalid_token", apperrors.ErrInvalidToken)
			return
		case !result.OK():
			m.reject(c, "user_not_found", apperrors.WithMessage(apperrors.ErrUnauthorized, constants.MsgUnauthorized))
			return
		case !result.User.Active:
			m.reject(c, "inactive", apperrors.ErrAccountInactive)
			return
		case !result.User.Verified:
			m.reject(c, "unverified", apperrors.ErrEmailNotVerified)
			return
		}

		user := result.User
		ctx = ctxutil.WithUserID(ctx, user.ID)
		ctx = ctxutil.WithUserRole(ctx, string(user.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Set(constants.GinKeyCurrentUser, user)

		metrics.AuthGateDecisions.WithLabelValues("authorized").Inc()
		c.Next()
	}
}

// CurrentUser returns the identity resolved by Deserialize.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(constants.GinKeyCurrentUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

func (m *AuthMiddleware) guard(name string, allow func(*model.User) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			metrics.AuthGuardRejections.WithLabelValues(name, strconv.Itoa(http.StatusUnauthorized)).Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, constants.BuildCodedErrorResponse(apperrors.ErrUnauthorized.Code, constants.MsgUnauthorized))
			return
		}
		if !allow(user) {
			metrics.AuthGuardRejections.WithLabelValues(name, strconv.Itoa(http.StatusForbidden)).Inc()
			logger.WarnWithContext(c.Request.Context(), "Role not allowed").
				String("guard", name).
				String("role", string(user.Role)).
				Path(c.Request.URL.Path).
				Log()
			c.AbortWithStatusJSON(http.StatusForbidden, constants.BuildCodedErrorResponse(apperrors.ErrForbidden.Code, constants.MsgForbidden))
			return
		}
		c.Next()
	}
}

// RequireUser admits any resolved identity.
func (m *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return m.guard("user", func(*model.User) bool { return true })
}

// RequireStaff admits ADMIN, COMPANY_MANAGER and EMPLOYEE.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return m.guard(service.StrategyStaff, func(u *model.User) bool {
		return m.authenticator.Accepts(service.StrategyStaff, u.Role)
	})
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.guard(service.StrategyAdmin, func(u *model.User) bool {
		return m.authenticator.Accepts(service.StrategyAdmin, u.Role)
	})
}

// RequireRoles admits the listed roles only.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return m.guard("roles", func(u *model.User) bool { return u.Role.In(roles...) })
}
