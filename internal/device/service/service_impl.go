package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/clock"
	"github.com/smallbiznis/repairdesk/internal/config"
	customerdomain "github.com/smallbiznis/repairdesk/internal/customer/domain"
	"github.com/smallbiznis/repairdesk/internal/device/domain"
	"github.com/smallbiznis/repairdesk/internal/rollup"
	ticketdomain "github.com/smallbiznis/repairdesk/internal/ticket/domain"
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

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Config       config.Config
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
	Rollup       *rollup.Engine
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	pages        config.PaginationConfig
	repo         domain.Repository
	customerRepo customerdomain.Repository
	rollup       *rollup.Engine
	store        repository.Repository[domain.Device]
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("device.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		pages:        p.Config.Pagination,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		rollup:       p.Rollup,
		store:        repository.ProvideStore[domain.Device](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateDeviceRequest) (domain.Device, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Device{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return domain.Device{}, err
	}
	deviceType := req.Type
	if deviceType == "" {
		deviceType = domain.DeviceTypeOther
	}
	if !deviceType.Valid() {
		return domain.Device{}, domain.ErrInvalidType
	}

	now := s.clock.Now()
	device := domain.Device{
		ID:           s.genID.Generate(),
		CustomerID:   customerID,
		Type:         deviceType,
		Brand:        strings.TrimSpace(req.Brand),
		Model:        strings.TrimSpace(req.Model),
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.customerRepo.FindByID(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrCustomerNotFound
		}
		if err := s.repo.Insert(ctx, tx, &device); err != nil {
			return err
		}
		return s.rollup.DeviceChanged(ctx, tx, device, rollup.Created())
	})
	if err != nil {
		return domain.Device{}, err
	}

	s.log.Info("device created",
		zap.String("device_id", device.ID.String()),
		zap.String("customer_id", customerID.String()),
	)
	return device, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateDeviceRequest) (domain.Device, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Device{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Device{}, err
	}
	if req.Type != nil && !req.Type.Valid() {
		return domain.Device{}, domain.ErrInvalidType
	}

	var updated domain.Device
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		device, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if device == nil {
			return domain.ErrNotFound
		}
		if req.Type != nil {
			device.Type = *req.Type
		}
		if req.Brand != nil {
			device.Brand = strings.TrimSpace(*req.Brand)
		}
		if req.Model != nil {
			device.Model = strings.TrimSpace(*req.Model)
		}
		if req.SerialNumber != nil {
			device.SerialNumber = strings.TrimSpace(*req.SerialNumber)
		}
		device.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, device); err != nil {
			return err
		}
		updated = *device
		return nil
	})
	if err != nil {
		return domain.Device{}, err
	}
	return updated, nil
}

// Delete removes a device without tickets and refreshes its customer.
func (s *Service) Delete(ctx context.Context, id string) error {
	deviceID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		device, err := s.repo.FindByID(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if device == nil {
			return domain.ErrNotFound
		}

		var tickets int64
		if err := tx.WithContext(ctx).Model(&ticketdomain.Ticket{}).Where("device_id = ?", deviceID).Count(&tickets).Error; err != nil {
			return err
		}
		if tickets > 0 {
			return domain.ErrHasTickets
		}
		if err := s.repo.Delete(ctx, tx, deviceID); err != nil {
			return err
		}
		return s.rollup.DeviceChanged(ctx, tx, *device, rollup.Deleted())
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Device, error) {
	deviceID, err := parseID(id)
	if err != nil {
		return domain.Device{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return domain.Device{}, err
	}
	if item == nil {
		return domain.Device{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListDeviceRequest) (domain.ListDeviceResponse, error) {
	pageSize := s.pages.PageSize(req.PageSize)

	query := &domain.Device{}
	if strings.TrimSpace(req.CustomerID) != "" {
		customerID, err := parseID(req.CustomerID)
		if err != nil {
			return domain.ListDeviceResponse{}, err
		}
		query.CustomerID = customerID
	}

	items, err := s.store.Find(ctx, query,
		option.ApplyPagination(pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize}),
		option.WithOrder("created_at desc, id desc"),
	)
	if err != nil {
		return domain.ListDeviceResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pageSize, func(device *domain.Device) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        device.ID.String(),
			CreatedAt: device.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	devices := make([]domain.Device, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		devices = append(devices, *item)
	}

	return domain.ListDeviceResponse{PageInfo: pageInfo, Devices: devices}, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
