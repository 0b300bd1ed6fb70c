package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/repairdesk/internal/ticket/domain"
	dbpkg "github.com/smallbiznis/repairdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, ticket *domain.Ticket) error {
	return db.WithContext(ctx).Create(ticket).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, ticket *domain.Ticket) error {
	return db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("id = ?", ticket.ID).
		Updates(map[string]any{
			"title":       ticket.Title,
			"description": ticket.Description,
			"status":      ticket.Status,
			"updated_at":  ticket.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Ticket{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if dbpkg.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repo) ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Model(&domain.Ticket{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (r *repo) StatusesByDevice(ctx context.Context, db *gorm.DB, deviceID snowflake.ID) ([]domain.TicketStatus, error) {
	var statuses []domain.TicketStatus
	err := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("device_id = ?", deviceID).
		Pluck("status", &statuses).Error
	return statuses, err
}

func (r *repo) StatusesByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.TicketStatus, error) {
	var statuses []domain.TicketStatus
	err := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("customer_id = ?", customerID).
		Pluck("status", &statuses).Error
	return statuses, err
}

func (r *repo) UpdateCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, counters domain.Counters) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tickets
		 SET tasks_count = ?, pending_tasks_count = ?, orders_count = ?, pending_orders_count = ?
		 WHERE id = ?`,
		counters.TasksCount,
		counters.PendingTasksCount,
		counters.OrdersCount,
		counters.PendingOrdersCount,
		id,
	).Error
}

func (r *repo) UpdateTotalCost(ctx context.Context, db *gorm.DB, id snowflake.ID, total decimal.Decimal) error {
	return db.WithContext(ctx).Exec(`UPDATE tickets SET total_cost = ? WHERE id = ?`, total, id).Error
}
