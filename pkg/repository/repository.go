package repository

import (
	"context"

	"github.com/smallbiznis/repairdesk/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm-backed store for simple lookups. Zero-valued
// fields of the query struct are ignored, so it suits equality filters only.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Count(ctx context.Context, query *T) (int64, error)
	Create(ctx context.Context, resource *T) error
	Delete(ctx context.Context, id any) error
}
