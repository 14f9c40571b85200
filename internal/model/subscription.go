package model

import (
	"time"
)

const (
	PlanBasic = "basic"
	PlanPro   = "pro"
	PlanVIP   = "vip"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"
	SubscriptionStatusPending  = "pending"
)

// Access tiers, ordered. TierFree is what a user without an active subscription gets.
const (
	TierFree = "free"
)

var tierRank = map[string]int{
	TierFree:  0,
	PlanBasic: 1,
	PlanPro:   2,
	PlanVIP:   3,
}

// IsValidPlan reports whether plan is a purchasable plan.
func IsValidPlan(plan string) bool {
	switch plan {
	case PlanBasic, PlanPro, PlanVIP:
		return true
	}
	return false
}

// IsValidTier reports whether tier is free or a purchasable plan.
func IsValidTier(tier string) bool {
	_, ok := tierRank[tier]
	return ok
}

// TierAllows reports whether a user holding tier may see content requiring required.
// Unknown required tiers are treated as vip.
func TierAllows(tier, required string) bool {
	need, ok := tierRank[required]
	if !ok {
		need = tierRank[PlanVIP]
	}
	return tierRank[tier] >= need
}

func IsValidSubscriptionStatus(status string) bool {
	switch status {
	case SubscriptionStatusActive, SubscriptionStatusCanceled, SubscriptionStatusExpired, SubscriptionStatusPending:
		return true
	}
	return false
}

type Subscription struct {
	ID                int64     `gorm:"primaryKey" json:"id"`
	UserID            int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	Plan              string    `gorm:"size:20;not null" json:"plan"` // basic, pro, vip
	Status            string    `gorm:"size:20;default:active;index" json:"status"`
	PeriodStart       time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd         time.Time `gorm:"not null;index" json:"period_end"`
	CancelAtPeriodEnd bool      `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActiveAt reports whether the subscription grants access at t.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.PeriodEnd.After(t)
}
