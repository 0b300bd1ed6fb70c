package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/customer/domain"
	dbpkg "github.com/smallbiznis/repairdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"name":       customer.Name,
			"email":      customer.Email,
			"phone":      customer.Phone,
			"updated_at": customer.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Customer{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if dbpkg.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repo) UpdateCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, counters domain.Counters) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET devices_count = ?, tickets_count = ?, pending_tickets_count = ?
		 WHERE id = ?`,
		counters.DevicesCount,
		counters.TicketsCount,
		counters.PendingTicketsCount,
		id,
	).Error
}

func (r *repo) ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Model(&domain.Customer{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}
