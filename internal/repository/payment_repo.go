package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fixedpronos/prono_server/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByCorrelationToken(ctx context.Context, token string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).Where("correlation_token = ?", token).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// SetCorrelationToken stores the provider session token issued for a payment.
func (r *PaymentRepository) SetCorrelationToken(ctx context.Context, id, token string, metadata model.PaymentMetadata) error {
	return r.db.WithContext(ctx).Model(&model.Payment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"correlation_token": token,
		"metadata":          datatypes.NewJSONType(metadata),
	}).Error
}

// StatusTransition describes a conditional status write.
type StatusTransition struct {
	From        string
	To          string
	Metadata    model.PaymentMetadata
	ProcessedAt time.Time
	ProcessedBy *int64
	Notes       *string
}

// TransitionStatus moves a payment from t.From to t.To only if it is still in t.From.
// It reports false when another writer changed the status first.
func (r *PaymentRepository) TransitionStatus(ctx context.Context, id string, t StatusTransition) (bool, error) {
	fields := map[string]interface{}{
		"status":       t.To,
		"metadata":     datatypes.NewJSONType(t.Metadata),
		"processed_at": t.ProcessedAt,
	}
	if t.ProcessedBy != nil {
		fields["processed_by"] = *t.ProcessedBy
	}
	if t.Notes != nil {
		fields["notes"] = *t.Notes
	}

	result := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, t.From).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateMetadata replaces the metadata of a payment that is still in status.
func (r *PaymentRepository) UpdateMetadata(ctx context.Context, id, status string, metadata model.PaymentMetadata) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, status).
		Update("metadata", datatypes.NewJSONType(metadata))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkEntitled claims the entitlement grant for a payment. Only the first caller gets true.
func (r *PaymentRepository) MarkEntitled(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ? AND entitled_at IS NULL", id, model.PaymentStatusApproved).
		Update("entitled_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*model.Payment, int64, error) {
	var payments []*model.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Payment{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&payments).Error
	return payments, total, err
}

// List returns payments for the admin panel, optionally filtered by status.
func (r *PaymentRepository) List(ctx context.Context, status string, page, pageSize int) ([]*model.Payment, int64, error) {
	var payments []*model.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Payment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&payments).Error
	return payments, total, err
}

func (r *PaymentRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// ListStale returns payments still in status that were created before cutoff.
func (r *PaymentRepository) ListStale(ctx context.Context, status string, cutoff time.Time) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", status, cutoff).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}
