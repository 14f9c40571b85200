package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/fixedpronos/prono_server/internal/pkg/response"
	"github.com/fixedpronos/prono_server/internal/service"
)

// serviceError writes the envelope matching a service error.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidPlan),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPeriod):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrPaymentNotFound):
		response.NotFoundError(c, "payment not found")
	case errors.Is(err, service.ErrPronoNotFound):
		response.NotFoundError(c, "prono not found")
	case errors.Is(err, service.ErrPaymentPermission):
		response.PermissionError(c, "")
	case errors.Is(err, service.ErrPartialFailure):
		response.ServerError(c, "payment approved, subscription grant queued for retry")
	case errors.Is(err, service.ErrGateway):
		response.GatewayError(c, "")
	default:
		log.Printf("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
		response.ServerError(c, "")
	}
}
