package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ahlanjobb/api/internal/constants"
	apperrors "github.com/ahlanjobb/api/internal/errors"
	"github.com/ahlanjobb/api/internal/middleware"
	"github.com/ahlanjobb/api/internal/model"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/ahlanjobb/api/pkg/validation"
	"github.com/gin-gonic/gin"
)

// respondError writes err with the status of its domain code. Unexpected
// errors only carry their details while gin runs in debug mode.
func respondError(ctx context.Context, c *gin.Context, action string, err error) {
	status := apperrors.ToHTTPStatus(err)
	code := apperrors.GetErrorCode(err)

	if status >= http.StatusInternalServerError {
		logger.ErrorWithContext(ctx, action+" failed").
			Int("http_status", status).
			Err(err).
			Log()
		body := constants.BuildCodedErrorResponse(code, constants.MsgInternalError)
		if gin.IsDebugging() {
			body[constants.ResponseFieldDetails] = err.Error()
		}
		c.JSON(status, body)
		return
	}

	logger.WarnWithContext(ctx, action+" rejected").
		Int("http_status", status).
		String("code", code).
		Log()
	c.JSON(status, constants.BuildCodedErrorResponse(code, apperrors.GetErrorMessage(err)))
}

// respondBindError reports request decoding and validation failures.
func respondBindError(ctx context.Context, c *gin.Context, err error) {
	logger.WarnWithContext(ctx, "Invalid request").Err(err).Log()
	body := constants.BuildCodedErrorResponse(apperrors.ErrInvalidInput.Code, constants.MsgInvalidFormat)
	body[constants.ResponseFieldDetails] = validation.Messages(err)
	c.JSON(http.StatusBadRequest, body)
}

// currentUser returns the identity resolved by the authorization gate.
// Routes using it sit behind a guard, so a miss is answered with 401.
func currentUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildCodedErrorResponse(apperrors.ErrUnauthorized.Code, constants.MsgUnauthorized))
		return nil, false
	}
	return user, true
}

// paramID parses the :id path parameter.
func paramID(ctx context.Context, c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		logger.WarnWithContext(ctx, "Invalid ID format").String("raw_id", raw).Log()
		c.JSON(http.StatusBadRequest, constants.BuildCodedErrorResponse(apperrors.ErrInvalidInput.Code, "invalid id"))
		return 0, false
	}
	return uint(id), true
}
