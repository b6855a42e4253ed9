package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/ledger"
)

// writeError translates a service error into an HTTP response. Ledger errors
// map by kind; anything else is an infrastructure failure and is logged and
// reported as a 500 without leaking the underlying message.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var le *ledger.Error
	if errors.As(err, &le) {
		c.JSON(statusForKind(le.Kind), gin.H{
			"error": le.Msg,
			"code":  le.Code,
		})
		return
	}

	logger.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func statusForKind(kind ledger.Kind) int {
	switch kind {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindConflict:
		return http.StatusConflict
	case ledger.KindUnauthorized:
		return http.StatusForbidden
	case ledger.KindState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
