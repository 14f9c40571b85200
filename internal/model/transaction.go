package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypePayment = "payment"

	TransactionStatusCompleted = "completed"
)

// Transaction is an append-only history entry. Rows are never updated.
type Transaction struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	UserID      int64           `gorm:"not null;index" json:"user_id"`
	PaymentID   string          `gorm:"size:36;index" json:"payment_id"`
	Type        string          `gorm:"size:20;not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string          `gorm:"size:8" json:"currency"`
	Description string          `gorm:"size:255" json:"description"`
	Status      string          `gorm:"size:20;not null" json:"status"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
