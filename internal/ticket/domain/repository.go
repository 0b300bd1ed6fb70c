package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, ticket *Ticket) error
	Update(ctx context.Context, db *gorm.DB, ticket *Ticket) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Ticket, error)
	ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
	StatusesByDevice(ctx context.Context, db *gorm.DB, deviceID snowflake.ID) ([]TicketStatus, error)
	StatusesByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]TicketStatus, error)
	UpdateCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, counters Counters) error
	UpdateTotalCost(ctx context.Context, db *gorm.DB, id snowflake.ID, total decimal.Decimal) error
}
