package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fixedpronos/prono_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upsert writes the subscription keyed by user_id.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan",
			"status",
			"period_start",
			"period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error
}

func (r *SubscriptionRepository) List(ctx context.Context, status string, page, pageSize int) ([]*model.Subscription, int64, error) {
	var subs []*model.Subscription
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Subscription{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("period_end DESC").Offset(offset).Limit(pageSize).Find(&subs).Error
	return subs, total, err
}

func (r *SubscriptionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("status = ? AND period_end > ?", model.SubscriptionStatusActive, now).
		Count(&count).Error
	return count, err
}

// CountEnded counts active subscriptions whose period is over.
func (r *SubscriptionRepository) CountEnded(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("status = ? AND period_end <= ?", model.SubscriptionStatusActive, now).
		Count(&count).Error
	return count, err
}

// ExpireEnded marks active subscriptions whose period is over as expired.
func (r *SubscriptionRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("status = ? AND period_end <= ?", model.SubscriptionStatusActive, now).
		Update("status", model.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}
