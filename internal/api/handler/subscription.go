package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fixedpronos/prono_server/internal/api/middleware"
	"github.com/fixedpronos/prono_server/internal/pkg/response"
	"github.com/fixedpronos/prono_server/internal/service"
)

type SubscriptionHandler struct {
	subService *service.SubscriptionService
}

func NewSubscriptionHandler(subService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subService: subService,
	}
}

// Status returns the caller's subscription and tier
// GET /api/v1/user/subscription
func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	status, err := h.subService.Status(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, status)
}
