package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/transaction/domain"
	dbpkg "github.com/smallbiznis/repairdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, transaction *domain.Transaction) error {
	return db.WithContext(ctx).Create(transaction).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, transaction *domain.Transaction) error {
	return db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("id = ?", transaction.ID).
		Updates(map[string]any{
			"type":       transaction.Type,
			"method":     transaction.Method,
			"amount":     transaction.Amount,
			"note":       transaction.Note,
			"updated_at": transaction.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Transaction{}).Error
}

func (r *repo) DeleteByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error {
	return db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Delete(&domain.Transaction{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var transaction domain.Transaction
	err := db.WithContext(ctx).Where("id = ?", id).First(&transaction).Error
	if dbpkg.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repo) ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at asc, id asc").
		Find(&transactions).Error
	return transactions, err
}
