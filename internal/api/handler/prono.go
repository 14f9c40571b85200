package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fixedpronos/prono_server/internal/api/middleware"
	"github.com/fixedpronos/prono_server/internal/pkg/response"
	"github.com/fixedpronos/prono_server/internal/service"
)

// PronoHandler routes run behind OptionalAuth; anonymous callers see the free tier.
type PronoHandler struct {
	pronoService *service.PronoService
}

func NewPronoHandler(pronoService *service.PronoService) *PronoHandler {
	return &PronoHandler{
		pronoService: pronoService,
	}
}

// List GET /api/v1/pronos?date=2026-01-31
func (h *PronoHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	page, pageSize := pagination(c)

	items, total, err := h.pronoService.List(c.Request.Context(), userID, c.Query("date"), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Today GET /api/v1/pronos/today
func (h *PronoHandler) Today(c *gin.Context) {
	h.listDay(c, 0)
}

// Yesterday GET /api/v1/pronos/yesterday
func (h *PronoHandler) Yesterday(c *gin.Context) {
	h.listDay(c, 1)
}

// BeforeYesterday GET /api/v1/pronos/before-yesterday
func (h *PronoHandler) BeforeYesterday(c *gin.Context) {
	h.listDay(c, 2)
}

func (h *PronoHandler) listDay(c *gin.Context, daysAgo int) {
	userID, _ := middleware.GetUserID(c)

	items, total, err := h.pronoService.ListDay(c.Request.Context(), userID, daysAgo)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, map[string]interface{}{
		"total": total,
		"items": items,
	})
}

// Get GET /api/v1/pronos/:id
func (h *PronoHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid prono id")
		return
	}

	item, err := h.pronoService.Get(c.Request.Context(), userID, id)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, item)
}
