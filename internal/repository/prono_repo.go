package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fixedpronos/prono_server/internal/model"
)

type PronoRepository struct {
	db *gorm.DB
}

func NewPronoRepository(db *gorm.DB) *PronoRepository {
	return &PronoRepository{db: db}
}

func (r *PronoRepository) Create(ctx context.Context, prono *model.Prono) error {
	return r.db.WithContext(ctx).Create(prono).Error
}

func (r *PronoRepository) GetByID(ctx context.Context, id int64) (*model.Prono, error) {
	var prono model.Prono
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&prono).Error
	if err != nil {
		return nil, err
	}
	return &prono, nil
}

func (r *PronoRepository) Update(ctx context.Context, prono *model.Prono) error {
	return r.db.WithContext(ctx).Save(prono).Error
}

func (r *PronoRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Prono{}, id).Error
}

// ListPublished returns published pronos whose match date falls in [from, to).
// A zero from/to leaves that side open.
func (r *PronoRepository) ListPublished(ctx context.Context, from, to time.Time, page, pageSize int) ([]*model.Prono, int64, error) {
	var pronos []*model.Prono
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Prono{}).Where("is_published = ?", true)
	if !from.IsZero() {
		query = query.Where("match_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("match_date < ?", to)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("match_date DESC").Offset(offset).Limit(pageSize).Find(&pronos).Error
	return pronos, total, err
}

// List returns every prono, published or not, for the admin panel.
func (r *PronoRepository) List(ctx context.Context, page, pageSize int) ([]*model.Prono, int64, error) {
	var pronos []*model.Prono
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Prono{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("match_date DESC").Offset(offset).Limit(pageSize).Find(&pronos).Error
	return pronos, total, err
}

func (r *PronoRepository) CountPublished(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Prono{}).Where("is_published = ?", true).Count(&count).Error
	return count, err
}
