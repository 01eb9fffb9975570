package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/internal/api/dto"
	"github.com/shopfront/order-platform/internal/application"
	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/middleware"
)

// Login handles POST /api/v1/admin/login
func Login(authenticator Authenticator, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req dto.LoginRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := authenticator.Login(c.Request.Context(), application.LoginCommand{
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": result})
	}
}
