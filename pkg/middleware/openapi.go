package middleware

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/getkin/kin-openapi/routers"

	"github.com/shopfront/order-platform/pkg/errors"
	"github.com/shopfront/order-platform/pkg/logging"
)

// RequestValidator checks a request against the API contract
type RequestValidator interface {
	ValidateRequest(ctx context.Context, req *http.Request) error
}

// OpenAPIValidation rejects requests that do not match the contract.
// Paths the contract does not document pass through.
func OpenAPIValidation(validator RequestValidator, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := validator.ValidateRequest(c.Request.Context(), c.Request)
		if err == nil {
			c.Next()
			return
		}
		if stderrors.Is(err, routers.ErrPathNotFound) || stderrors.Is(err, routers.ErrMethodNotAllowed) {
			c.Next()
			return
		}

		logger.WithContext(c.Request.Context()).Warn("Request failed contract validation",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err.Error(),
		)
		AbortWithAppError(c, errors.ErrValidation(err.Error()))
	}
}
