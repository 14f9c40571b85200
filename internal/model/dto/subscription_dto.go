package dto

import (
	"time"

	"github.com/fixedpronos/prono_server/internal/model"
)

type SubscriptionStatusResponse struct {
	HasActiveSubscription bool                `json:"has_active_subscription"`
	Tier                  string              `json:"tier"`
	CanAccessVIP          bool                `json:"can_access_vip"`
	Subscription          *model.Subscription `json:"subscription"`
}

// UpsertSubscriptionRequest is the admin body for creating or editing a user's subscription.
type UpsertSubscriptionRequest struct {
	Plan              string     `json:"plan" binding:"required"`
	Status            string     `json:"status" binding:"required"`
	PeriodStart       *time.Time `json:"period_start"`
	PeriodEnd         *time.Time `json:"period_end"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}
