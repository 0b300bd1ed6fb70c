package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, device *Device) error
	Update(ctx context.Context, db *gorm.DB, device *Device) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Device, error)
	ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
	CountByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (int64, error)
	UpdateCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, counters Counters) error
}
