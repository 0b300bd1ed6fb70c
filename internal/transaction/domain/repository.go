package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, transaction *Transaction) error
	Update(ctx context.Context, db *gorm.DB, transaction *Transaction) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]Transaction, error)
}
