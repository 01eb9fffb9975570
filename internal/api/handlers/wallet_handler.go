package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/pkg/errors"
	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/middleware"
)

// GetWallet handles GET /api/v1/wallet
func GetWallet(ledger LedgerReader, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		userID := CallerID(c)
		if userID == "" {
			responder.RespondWithAppError(errors.ErrUnauthorized(""))
			return
		}

		result, err := ledger.GetBalance(c.Request.Context(), userID)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": result})
	}
}
