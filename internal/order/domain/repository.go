package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	Update(ctx context.Context, db *gorm.DB, order *Order) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	ListByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) ([]Order, error)
}
