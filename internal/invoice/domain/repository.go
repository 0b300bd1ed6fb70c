package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	// Delete removes the invoice with its adjustments and transactions.
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) (*Invoice, error)
	ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
	// ListOverdue returns issued or sent invoices with an outstanding
	// balance whose due date is before asOf, oldest due first.
	ListOverdue(ctx context.Context, db *gorm.DB, asOf time.Time, limit int) ([]Invoice, error)
	// SaveAggregates writes derived amounts, total and status without
	// touching any other column.
	SaveAggregates(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	SaveWorkflow(ctx context.Context, db *gorm.DB, invoice *Invoice) error
}
