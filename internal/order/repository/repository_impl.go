package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/order/domain"
	dbpkg "github.com/smallbiznis/repairdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"name":        order.Name,
			"supplier":    order.Supplier,
			"type":        order.Type,
			"status":      order.Status,
			"cost":        order.Cost,
			"is_billable": order.IsBillable,
			"updated_at":  order.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Order{}).Error
}

func (r *repo) DeleteByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) error {
	return db.WithContext(ctx).Where("ticket_id = ?", ticketID).Delete(&domain.Order{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if dbpkg.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) ListByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at asc, id asc").
		Find(&orders).Error
	return orders, err
}
