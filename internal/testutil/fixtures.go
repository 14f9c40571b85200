package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fixedpronos/prono_server/internal/model"
)

// TestPayment creates a processing mobile-money payment for userID.
func TestPayment(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Payment)) *model.Payment {
	t.Helper()

	payment := &model.Payment{
		UserID:       userID,
		Amount:       decimal.NewFromInt(79),
		Currency:     "XOF",
		Method:       model.PaymentMethodMobileMoney,
		Plan:         model.PlanPro,
		MobileNumber: "+2250700000000",
		Status:       model.PaymentStatusProcessing,
	}

	for _, opt := range opts {
		opt(payment)
	}

	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("Failed to create test payment: %v", err)
	}

	return payment
}

func WithPaymentStatus(status string) func(*model.Payment) {
	return func(p *model.Payment) {
		p.Status = status
	}
}

func WithPlan(plan string) func(*model.Payment) {
	return func(p *model.Payment) {
		p.Plan = plan
	}
}

func WithAmount(amount int64) func(*model.Payment) {
	return func(p *model.Payment) {
		p.Amount = decimal.NewFromInt(amount)
	}
}

func WithCorrelationToken(token string) func(*model.Payment) {
	return func(p *model.Payment) {
		p.CorrelationToken = &token
	}
}

func WithEntitledAt(at time.Time) func(*model.Payment) {
	return func(p *model.Payment) {
		p.EntitledAt = &at
	}
}

// TestSubscription creates a subscription for userID.
func TestSubscription(t *testing.T, db *gorm.DB, userID int64, plan, status string, start, end time.Time) *model.Subscription {
	t.Helper()

	sub := &model.Subscription{
		UserID:      userID,
		Plan:        plan,
		Status:      status,
		PeriodStart: start,
		PeriodEnd:   end,
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// TestProno creates a published prono for matchDate.
func TestProno(t *testing.T, db *gorm.DB, matchDate time.Time, opts ...func(*model.Prono)) *model.Prono {
	t.Helper()

	prono := &model.Prono{
		Title:        fmt.Sprintf("Test Prono %d", time.Now().UnixNano()%10000),
		Sport:        "football",
		HomeTeam:     "ASEC Mimosas",
		AwayTeam:     "Africa Sports",
		Prediction:   "Home win",
		Analysis:     "Home side unbeaten in five",
		Odds:         decimal.RequireFromString("1.85"),
		RequiredTier: model.TierFree,
		IsPublished:  true,
		MatchDate:    matchDate,
	}

	for _, opt := range opts {
		opt(prono)
	}

	if err := db.Create(prono).Error; err != nil {
		t.Fatalf("Failed to create test prono: %v", err)
	}

	return prono
}

func WithRequiredTier(tier string) func(*model.Prono) {
	return func(p *model.Prono) {
		p.RequiredTier = tier
	}
}

func WithPublished(published bool) func(*model.Prono) {
	return func(p *model.Prono) {
		p.IsPublished = published
	}
}

// CountTransactions returns how many transactions userID has.
func CountTransactions(t *testing.T, db *gorm.DB, userID int64) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&model.Transaction{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count transactions: %v", err)
	}
	return count
}
