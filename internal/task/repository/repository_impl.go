package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/task/domain"
	dbpkg "github.com/smallbiznis/repairdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, task *domain.Task) error {
	return db.WithContext(ctx).Create(task).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, task *domain.Task) error {
	return db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"description": task.Description,
			"type":        task.Type,
			"status":      task.Status,
			"cost":        task.Cost,
			"is_billable": task.IsBillable,
			"updated_at":  task.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Task{}).Error
}

func (r *repo) DeleteByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) error {
	return db.WithContext(ctx).Where("ticket_id = ?", ticketID).Delete(&domain.Task{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Task, error) {
	var task domain.Task
	err := db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if dbpkg.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repo) ListByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) ([]domain.Task, error) {
	var tasks []domain.Task
	err := db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at asc, id asc").
		Find(&tasks).Error
	return tasks, err
}
