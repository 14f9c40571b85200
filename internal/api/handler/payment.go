package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fixedpronos/prono_server/config"
	"github.com/fixedpronos/prono_server/internal/api/middleware"
	"github.com/fixedpronos/prono_server/internal/model/dto"
	"github.com/fixedpronos/prono_server/internal/pkg/response"
	"github.com/fixedpronos/prono_server/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	cfg            *config.Config
}

func NewPaymentHandler(paymentService *service.PaymentService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		cfg:            cfg,
	}
}

// Initiate opens a MoneyFusion checkout
// POST /api/v1/payments/moneyfusion
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	// an allowed frontend origin receives the user after checkout
	callbackBase := h.cfg.Server.BaseURL
	if origin := c.GetHeader("Origin"); h.cfg.CORS.AllowsOrigin(origin) {
		callbackBase = origin
	}

	result, err := h.paymentService.Initiate(c.Request.Context(), &service.InitiateInput{
		UserID:          userID,
		Amount:          req.Amount,
		Plan:            req.Plan,
		PhoneNumber:     req.PhoneNumber,
		CustomerName:    req.CustomerName,
		CallbackBaseURL: callbackBase,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, dto.InitiatePaymentResponse{
		PaymentID:    result.PaymentID,
		PaymentURL:   result.RedirectURL,
		PaymentToken: result.CorrelationToken,
	})
}

// Submit records a manual payment for admin review
// POST /api/v1/payments/submit
func (h *PaymentHandler) Submit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	payment, err := h.paymentService.Submit(c.Request.Context(), &service.SubmitInput{
		UserID:            userID,
		Amount:            req.Amount,
		Plan:              req.Plan,
		Method:            req.Method,
		CryptoAddress:     req.CryptoAddress,
		CryptoTxHash:      req.CryptoTxHash,
		MobileNumber:      req.MobileNumber,
		MobileProvider:    req.MobileProvider,
		TransferReference: req.TransferReference,
		Notes:             req.Notes,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "payment submitted, it will be reviewed by our team", payment)
}

// Get returns one of the caller's payments
// GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	payment, err := h.paymentService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, payment)
}

// CheckStatus GET /api/v1/payments/status/:token
func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	status, err := h.paymentService.CheckStatus(c.Request.Context(), userID, c.Param("token"))
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, status)
}

// History GET /api/v1/user/payments
func (h *PaymentHandler) History(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := pagination(c)

	payments, total, err := h.paymentService.History(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, payments)
}

// Transactions GET /api/v1/user/transactions
func (h *PaymentHandler) Transactions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := pagination(c)

	txns, total, err := h.paymentService.Transactions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, txns)
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
