package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
)

func writeError(c *gin.Context, status int, kind checkout.Kind, message string) {
	c.JSON(status, gin.H{"error": gin.H{"kind": kind, "message": message}})
}

// httpStatus maps a checkout error kind onto the HTTP response status.
func httpStatus(kind checkout.Kind) int {
	switch kind {
	case checkout.KindInvalidArgument:
		return http.StatusBadRequest
	case checkout.KindFailedPrecondition:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the caller-facing message of err.
func errorMessage(err error) string {
	var ce *checkout.Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
