package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/clock"
	"github.com/smallbiznis/repairdesk/internal/config"
	"github.com/smallbiznis/repairdesk/internal/customer/domain"
	devicedomain "github.com/smallbiznis/repairdesk/internal/device/domain"
	"github.com/smallbiznis/repairdesk/pkg/db/option"
	"github.com/smallbiznis/repairdesk/pkg/db/pagination"
	"github.com/smallbiznis/repairdesk/pkg/repository"
	"github.com/smallbiznis/repairdesk/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
	Repo   domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	pages config.PaginationConfig
	repo  domain.Repository
	store repository.Repository[domain.Customer]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		pages: p.Config.Pagination,
		repo:  p.Repo,
		store: repository.ProvideStore[domain.Customer](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validation.Struct(req); err != nil {
		return domain.Customer{}, errors.Join(domain.ErrInvalidRequest, err)
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:        s.genID.Generate(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	s.log.Info("customer created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Customer{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	var updated domain.Customer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}
		if req.Name != nil {
			customer.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			customer.Email = strings.TrimSpace(*req.Email)
		}
		if req.Phone != nil {
			customer.Phone = strings.TrimSpace(*req.Phone)
		}
		customer.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, customer); err != nil {
			return err
		}
		updated = *customer
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return updated, nil
}

// Delete removes a customer that no longer owns devices.
func (s *Service) Delete(ctx context.Context, id string) error {
	customerID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.repo.FindByID(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}

		var devices int64
		if err := tx.WithContext(ctx).Model(&devicedomain.Device{}).Where("customer_id = ?", customerID).Count(&devices).Error; err != nil {
			return err
		}
		if devices > 0 {
			return domain.ErrHasDevices
		}
		return s.repo.Delete(ctx, tx, customerID)
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	customerID, err := parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	pageSize := s.pages.PageSize(req.PageSize)

	options := []option.QueryOption{
		option.ApplyPagination(pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize}),
		option.WithOrder("created_at desc, id desc"),
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "name",
			Operator: option.LIKE,
			Value:    "%" + name + "%",
		}))
	}

	items, err := s.store.Find(ctx, &domain.Customer{}, options...)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pageSize, func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        customer.ID.String(),
			CreatedAt: customer.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	return domain.ListCustomerResponse{PageInfo: pageInfo, Customers: customers}, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
