package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest starts a mobile-money payment for a plan.
type InitiatePaymentRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	Plan         string          `json:"plan" binding:"required"`
	PhoneNumber  string          `json:"phone_number" binding:"required"`
	CustomerName string          `json:"customer_name" binding:"required"`
}

type InitiatePaymentResponse struct {
	PaymentID    string `json:"payment_id"`
	PaymentURL   string `json:"payment_url"`
	PaymentToken string `json:"payment_token"`
}

// SubmitPaymentRequest declares a manual crypto, bank or mobile-money payment for review.
type SubmitPaymentRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Plan              string          `json:"plan" binding:"required"`
	Method            string          `json:"method" binding:"required,oneof=crypto mobile_money bank_transfer"`
	CryptoAddress     string          `json:"crypto_address"`
	CryptoTxHash      string          `json:"crypto_tx_hash"`
	MobileNumber      string          `json:"mobile_number"`
	MobileProvider    string          `json:"mobile_provider"`
	TransferReference string          `json:"transfer_reference"`
	Notes             string          `json:"notes"`
}

// ProcessPaymentRequest is the admin approve/reject body.
type ProcessPaymentRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Notes  string `json:"notes"`
}

// PersonalInfo is the correlation payload echoed back by the provider.
type PersonalInfo struct {
	PaymentID string      `json:"paymentId,omitempty"`
	UserID    json.Number `json:"userId,omitempty"`
	Plan      string      `json:"plan,omitempty"`
}

// MoneyFusionWebhook is the body MoneyFusion posts to the webhook URL.
type MoneyFusionWebhook struct {
	Event             string           `json:"event"`
	PersonalInfo      []PersonalInfo   `json:"personal_Info"`
	TokenPay          string           `json:"tokenPay"`
	NumeroSend        string           `json:"numeroSend"`
	NomClient         string           `json:"nomclient"`
	NumeroTransaction string           `json:"numeroTransaction"`
	Montant           *decimal.Decimal `json:"Montant"`
	Frais             *decimal.Decimal `json:"frais"`
	CreatedAt         string           `json:"createdAt"`
}

// PaymentIDFromPersonalInfo returns the first non-empty paymentId in personal_Info.
func (w *MoneyFusionWebhook) PaymentIDFromPersonalInfo() string {
	for _, info := range w.PersonalInfo {
		if info.PaymentID != "" {
			return info.PaymentID
		}
	}
	return ""
}

type WebhookResponse struct {
	Success bool   `json:"success"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PaymentStatusResponse wraps the provider's raw status payload.
type PaymentStatusResponse struct {
	PaymentID string          `json:"payment_id"`
	Status    string          `json:"status"`
	Provider  json.RawMessage `json:"provider"`
}

type DashboardStats struct {
	PendingPayments     int64     `json:"pending_payments"`
	ProcessingPayments  int64     `json:"processing_payments"`
	ApprovedPayments    int64     `json:"approved_payments"`
	RejectedPayments    int64     `json:"rejected_payments"`
	ActiveSubscriptions int64     `json:"active_subscriptions"`
	PublishedPronos     int64     `json:"published_pronos"`
	GeneratedAt         time.Time `json:"generated_at"`
}
