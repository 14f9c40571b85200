package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fixedpronos/prono_server/internal/api/middleware"
	"github.com/fixedpronos/prono_server/internal/model/dto"
	"github.com/fixedpronos/prono_server/internal/pkg/response"
	"github.com/fixedpronos/prono_server/internal/service"
)

// AdminHandler routes run behind Auth and RequireAdmin.
type AdminHandler struct {
	adminService     *service.AdminService
	paymentService   *service.PaymentService
	reconcileService *service.ReconcileService
	subService       *service.SubscriptionService
	pronoService     *service.PronoService
}

func NewAdminHandler(
	adminService *service.AdminService,
	paymentService *service.PaymentService,
	reconcileService *service.ReconcileService,
	subService *service.SubscriptionService,
	pronoService *service.PronoService,
) *AdminHandler {
	return &AdminHandler{
		adminService:     adminService,
		paymentService:   paymentService,
		reconcileService: reconcileService,
		subService:       subService,
		pronoService:     pronoService,
	}
}

// Dashboard GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, stats)
}

// ListPayments GET /api/v1/admin/payments?status=processing
func (h *AdminHandler) ListPayments(c *gin.Context) {
	page, pageSize := pagination(c)

	payments, total, err := h.paymentService.AdminList(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, payments)
}

// StalePayments lists checkouts left in processing
// GET /api/v1/admin/payments/stale?older_than=24h
func (h *AdminHandler) StalePayments(c *gin.Context) {
	olderThan, err := time.ParseDuration(c.DefaultQuery("older_than", "24h"))
	if err != nil || olderThan <= 0 {
		response.ParamError(c, "older_than must be a positive duration")
		return
	}

	payments, err := h.adminService.StalePayments(c.Request.Context(), time.Now().UTC().Add(-olderThan))
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, payments)
}

// ProcessPayment approves or rejects a payment by hand
// POST /api/v1/admin/payments/:id/process
func (h *AdminHandler) ProcessPayment(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.reconcileService.ApplyManual(c.Request.Context(), c.Param("id"), req.Status, req.Notes, adminID)
	if err != nil {
		serviceError(c, err)
		return
	}

	if result.Outcome != service.OutcomeApplied {
		response.DuplicateError(c, fmt.Sprintf("payment already %s", result.Payment.Status))
		return
	}

	response.SuccessWithMessage(c, "payment "+req.Status, gin.H{
		"payment":      result.Payment,
		"subscription": result.Subscription,
	})
}

// ListSubscriptions GET /api/v1/admin/subscriptions?status=active
func (h *AdminHandler) ListSubscriptions(c *gin.Context) {
	page, pageSize := pagination(c)

	subs, total, err := h.subService.AdminList(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, subs)
}

// UpsertSubscription PUT /api/v1/admin/users/:id/subscription
func (h *AdminHandler) UpsertSubscription(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user id")
		return
	}

	var req dto.UpsertSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	sub, err := h.subService.AdminUpsert(c.Request.Context(), userID, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, sub)
}

// ListPronos GET /api/v1/admin/pronos
func (h *AdminHandler) ListPronos(c *gin.Context) {
	page, pageSize := pagination(c)

	pronos, total, err := h.pronoService.AdminList(c.Request.Context(), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, pronos)
}

// CreateProno POST /api/v1/admin/pronos
func (h *AdminHandler) CreateProno(c *gin.Context) {
	var req dto.PronoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	prono, err := h.pronoService.Create(c.Request.Context(), &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, prono)
}

// UpdateProno PUT /api/v1/admin/pronos/:id
func (h *AdminHandler) UpdateProno(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid prono id")
		return
	}

	var req dto.PronoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	prono, err := h.pronoService.Update(c.Request.Context(), id, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, prono)
}

// DeleteProno DELETE /api/v1/admin/pronos/:id
func (h *AdminHandler) DeleteProno(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid prono id")
		return
	}

	if err := h.pronoService.Delete(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "deleted", nil)
}
