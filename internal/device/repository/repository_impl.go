package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/device/domain"
	dbpkg "github.com/smallbiznis/repairdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, device *domain.Device) error {
	return db.WithContext(ctx).Create(device).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, device *domain.Device) error {
	return db.WithContext(ctx).
		Model(&domain.Device{}).
		Where("id = ?", device.ID).
		Updates(map[string]any{
			"type":          device.Type,
			"brand":         device.Brand,
			"model":         device.Model,
			"serial_number": device.SerialNumber,
			"updated_at":    device.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Device{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Device, error) {
	var device domain.Device
	err := db.WithContext(ctx).Where("id = ?", id).First(&device).Error
	if dbpkg.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *repo) CountByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Device{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

func (r *repo) UpdateCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, counters domain.Counters) error {
	return db.WithContext(ctx).Exec(
		`UPDATE devices SET tickets_count = ?, pending_tickets_count = ? WHERE id = ?`,
		counters.TicketsCount,
		counters.PendingTicketsCount,
		id,
	).Error
}

func (r *repo) ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Model(&domain.Device{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}
