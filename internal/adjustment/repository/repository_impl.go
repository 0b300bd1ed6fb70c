package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	dbpkg "github.com/smallbiznis/repairdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, adjustment *domain.Adjustment) error {
	return db.WithContext(ctx).Create(adjustment).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, adjustment *domain.Adjustment) error {
	return db.WithContext(ctx).
		Model(&domain.Adjustment{}).
		Where("id = ?", adjustment.ID).
		Updates(map[string]any{
			"type":       adjustment.Type,
			"reason":     adjustment.Reason,
			"amount":     adjustment.Amount,
			"percentage": adjustment.Percentage,
			"note":       adjustment.Note,
			"updated_at": adjustment.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Adjustment{}).Error
}

func (r *repo) DeleteByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error {
	return db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Delete(&domain.Adjustment{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Adjustment, error) {
	var adjustment domain.Adjustment
	err := db.WithContext(ctx).Where("id = ?", id).First(&adjustment).Error
	if dbpkg.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &adjustment, nil
}

func (r *repo) ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.Adjustment, error) {
	var adjustments []domain.Adjustment
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at asc, id asc").
		Find(&adjustments).Error
	return adjustments, err
}

func (r *repo) HasPercentage(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Adjustment{}).
		Where("invoice_id = ? AND percentage IS NOT NULL", invoiceID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}
