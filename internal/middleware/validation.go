package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/ahlanjobb/api/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

type ValidationMiddleware struct {
	validator binding.StructValidator
}

// NewValidationMiddleware validates with gin's binding validator so the
// custom tags registered on it apply here too.
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{validator: binding.Validator}
}

// ValidateRequestBody rejects a JSON body that does not decode into, or
// validate as, the value factory returns. The body is restored for the
// handler.
func (m *ValidationMiddleware) ValidateRequestBody(factory func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(c.Request.Body)
			if err != nil {
				logger.GetLogger().Error("Middleware: Failed to read request body",
					zap.String("client_ip", clientIP),
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse("Failed to read request body", nil))
				return
			}
		}

		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		request := factory()

		if err := json.Unmarshal(bodyBytes, request); err != nil {
			logger.GetLogger().Debug("Middleware: JSON unmarshaling failed",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
				zap.Int("body_size", len(bodyBytes)),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgInvalidFormat, err.Error()))
			return
		}

		if err := m.validator.ValidateStruct(request); err != nil {
			validationErrors := validation.Messages(err)

			logger.GetLogger().Warn("Middleware: Request validation failed",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
				zap.Strings("validation_errors", validationErrors),
			)

			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse("Validation failed", validationErrors))
			return
		}

		c.Next()
	}
}
