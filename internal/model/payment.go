package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusApproved   = "approved"
	PaymentStatusRejected   = "rejected"
)

const (
	PaymentMethodCrypto       = "crypto"
	PaymentMethodMobileMoney  = "mobile_money"
	PaymentMethodBankTransfer = "bank_transfer"
)

// PaymentMetadata holds what the provider told us about a payment, or what
// the user declared when submitting a manual payment.
type PaymentMetadata struct {
	EventName             string           `json:"event_name,omitempty"`
	ProviderTransactionID string           `json:"provider_transaction_id,omitempty"`
	ProviderToken         string           `json:"provider_token,omitempty"`
	AmountReceived        *decimal.Decimal `json:"amount_received,omitempty"`
	Fees                  *decimal.Decimal `json:"fees,omitempty"`
	ReceivedAt            *time.Time       `json:"received_at,omitempty"`

	CryptoAddress     string `json:"crypto_address,omitempty"`
	CryptoTxHash      string `json:"crypto_tx_hash,omitempty"`
	MobileProvider    string `json:"mobile_provider,omitempty"`
	TransferReference string `json:"transfer_reference,omitempty"`
}

// Merge overlays the non-empty fields of other onto m.
func (m PaymentMetadata) Merge(other PaymentMetadata) PaymentMetadata {
	if other.EventName != "" {
		m.EventName = other.EventName
	}
	if other.ProviderTransactionID != "" {
		m.ProviderTransactionID = other.ProviderTransactionID
	}
	if other.ProviderToken != "" {
		m.ProviderToken = other.ProviderToken
	}
	if other.AmountReceived != nil {
		m.AmountReceived = other.AmountReceived
	}
	if other.Fees != nil {
		m.Fees = other.Fees
	}
	if other.ReceivedAt != nil {
		m.ReceivedAt = other.ReceivedAt
	}
	if other.CryptoAddress != "" {
		m.CryptoAddress = other.CryptoAddress
	}
	if other.CryptoTxHash != "" {
		m.CryptoTxHash = other.CryptoTxHash
	}
	if other.MobileProvider != "" {
		m.MobileProvider = other.MobileProvider
	}
	if other.TransferReference != "" {
		m.TransferReference = other.TransferReference
	}
	return m
}

type Payment struct {
	ID               string                              `gorm:"primaryKey;size:36" json:"id"`
	UserID           int64                               `gorm:"not null;index" json:"user_id"`
	Amount           decimal.Decimal                     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency         string                              `gorm:"size:8;not null" json:"currency"`
	Method           string                              `gorm:"size:20;not null" json:"method"`
	Plan             string                              `gorm:"size:20;not null" json:"plan"`
	MobileNumber     string                              `gorm:"size:32" json:"mobile_number,omitempty"`
	CorrelationToken *string                             `gorm:"size:128;uniqueIndex" json:"correlation_token,omitempty"`
	Status           string                              `gorm:"size:20;not null;index" json:"status"`
	Metadata         datatypes.JSONType[PaymentMetadata] `json:"metadata"`
	Notes            string                              `gorm:"type:text" json:"notes,omitempty"`
	ProcessedBy      *int64                              `json:"processed_by,omitempty"`
	ProcessedAt      *time.Time                          `json:"processed_at,omitempty"`
	EntitledAt       *time.Time                          `json:"entitled_at,omitempty"`
	CreatedAt        time.Time                           `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time                           `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsValidPaymentMethod reports whether method is one users may submit.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCrypto, PaymentMethodMobileMoney, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// IsTerminalPaymentStatus reports whether no further transition is allowed out of status.
func IsTerminalPaymentStatus(status string) bool {
	return status == PaymentStatusApproved || status == PaymentStatusRejected
}

// IsTerminal reports whether the payment reached approved or rejected.
func (p *Payment) IsTerminal() bool {
	return IsTerminalPaymentStatus(p.Status)
}
