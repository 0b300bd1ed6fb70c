package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, adjustment *Adjustment) error
	Update(ctx context.Context, db *gorm.DB, adjustment *Adjustment) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Adjustment, error)
	ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]Adjustment, error)
	HasPercentage(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (bool, error)
}
