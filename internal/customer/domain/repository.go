package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
	UpdateCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, counters Counters) error
}
