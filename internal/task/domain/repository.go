package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, task *Task) error
	Update(ctx context.Context, db *gorm.DB, task *Task) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Task, error)
	ListByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) ([]Task, error)
}
