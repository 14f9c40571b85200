package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixedpronos/prono_server/internal/model/dto"
	"github.com/fixedpronos/prono_server/internal/service"
)

// WebhookHandler answers with plain HTTP status codes so the provider retries on 5xx.
type WebhookHandler struct {
	reconcileService *service.ReconcileService
}

func NewWebhookHandler(reconcileService *service.ReconcileService) *WebhookHandler {
	return &WebhookHandler{
		reconcileService: reconcileService,
	}
}

// MoneyFusion receives payment notifications
// POST /api/v1/webhooks/moneyfusion?paymentId=xxx
func (h *WebhookHandler) MoneyFusion(c *gin.Context) {
	var body dto.MoneyFusionWebhook
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[Webhook] malformed body: %v", err)
		c.JSON(http.StatusBadRequest, dto.WebhookResponse{Error: "malformed body"})
		return
	}

	paymentID := c.Query("paymentId")
	if paymentID == "" {
		paymentID = body.PaymentIDFromPersonalInfo()
	}

	log.Printf("[Webhook] event=%s payment=%s token=%s transaction=%s",
		body.Event, paymentID, body.TokenPay, body.NumeroTransaction)

	result, err := h.reconcileService.Reconcile(c.Request.Context(), &service.Notification{
		Event:                 body.Event,
		PaymentID:             paymentID,
		CorrelationToken:      body.TokenPay,
		ProviderTransactionID: body.NumeroTransaction,
		AmountReceived:        body.Montant,
		Fees:                  body.Frais,
	})
	if err != nil {
		status := webhookStatus(err)
		log.Printf("[Webhook] event=%s payment=%s: %d %v", body.Event, paymentID, status, err)
		c.JSON(status, dto.WebhookResponse{Error: http.StatusText(status)})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{
		Success: true,
		Outcome: string(result.Outcome),
	})
}

func webhookStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingReference), errors.Is(err, service.ErrTokenMismatch):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPaymentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
