package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/clock"
	"github.com/smallbiznis/repairdesk/internal/rollup"
	"github.com/smallbiznis/repairdesk/internal/task/domain"
	ticketdomain "github.com/smallbiznis/repairdesk/internal/ticket/domain"
	"github.com/smallbiznis/repairdesk/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Tickets ticketdomain.Repository
	Rollup  *rollup.Engine
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	tickets ticketdomain.Repository
	rollup  *rollup.Engine
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("task.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		tickets: p.Tickets,
		rollup:  p.Rollup,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTaskRequest) (domain.Task, error) {
	req.Description = strings.TrimSpace(req.Description)
	if err := validation.Struct(req); err != nil {
		return domain.Task{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	ticketID, err := parseID(req.TicketID)
	if err != nil {
		return domain.Task{}, err
	}
	if req.Type == "" {
		req.Type = domain.TaskTypeOther
	}
	if !req.Type.Valid() {
		return domain.Task{}, domain.ErrInvalidType
	}
	if req.Status == "" {
		req.Status = domain.TaskStatusNew
	}
	if !req.Status.Valid() {
		return domain.Task{}, domain.ErrInvalidStatus
	}
	if req.Cost.IsNegative() {
		return domain.Task{}, domain.ErrInvalidCost
	}

	billable := true
	if req.IsBillable != nil {
		billable = *req.IsBillable
	}

	now := s.clock.Now()
	task := domain.Task{
		ID:          s.genID.Generate(),
		TicketID:    ticketID,
		Description: req.Description,
		Type:        req.Type,
		Status:      req.Status,
		Cost:        req.Cost.Round(2),
		IsBillable:  billable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.Normalize()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := s.tickets.FindByID(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return domain.ErrTicketNotFound
		}
		if err := s.repo.Insert(ctx, tx, &task); err != nil {
			return err
		}
		return s.rollup.TaskChanged(ctx, tx, ticketID, rollup.Created())
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.log.Info("task created",
		zap.String("task_id", task.ID.String()),
		zap.String("ticket_id", ticketID.String()),
	)
	return task, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTaskRequest) (domain.Task, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Task{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Task{}, err
	}
	if req.Type != nil && !req.Type.Valid() {
		return domain.Task{}, domain.ErrInvalidType
	}
	if req.Status != nil && !req.Status.Valid() {
		return domain.Task{}, domain.ErrInvalidStatus
	}
	if req.Cost != nil && req.Cost.IsNegative() {
		return domain.Task{}, domain.ErrInvalidCost
	}

	return s.mutate(ctx, id, func(task *domain.Task) {
		if req.Description != nil {
			task.Description = strings.TrimSpace(*req.Description)
		}
		if req.Type != nil {
			task.Type = *req.Type
		}
		if req.Status != nil {
			task.Status = *req.Status
		}
		if req.Cost != nil {
			task.Cost = req.Cost.Round(2)
		}
		if req.IsBillable != nil {
			task.IsBillable = *req.IsBillable
		}
	})
}

// Advance completes a new task.
func (s *Service) Advance(ctx context.Context, id string) (domain.Task, error) {
	taskID, err := parseID(id)
	if err != nil {
		return domain.Task{}, err
	}
	return s.mutate(ctx, taskID, func(task *domain.Task) {
		task.Status = task.Status.Next()
	})
}

func (s *Service) mutate(ctx context.Context, id snowflake.ID, apply func(*domain.Task)) (domain.Task, error) {
	var updated domain.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if task == nil {
			return domain.ErrNotFound
		}
		before := *task
		apply(task)
		task.Normalize()
		task.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, task); err != nil {
			return err
		}

		var diff rollup.Differ
		diff.Mark(rollup.FieldStatus, task.Status != before.Status).
			Mark(rollup.FieldCost, !task.Cost.Equal(before.Cost)).
			Mark(rollup.FieldIsBillable, task.IsBillable != before.IsBillable)
		if err := s.rollup.TaskChanged(ctx, tx, task.TicketID, diff.Change()); err != nil {
			return err
		}
		updated = *task
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	taskID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := s.repo.FindByID(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.Delete(ctx, tx, taskID); err != nil {
			return err
		}
		return s.rollup.TaskChanged(ctx, tx, task.TicketID, rollup.Deleted())
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Task, error) {
	taskID, err := parseID(id)
	if err != nil {
		return domain.Task{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if item == nil {
		return domain.Task{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) ListByTicket(ctx context.Context, ticketID string) ([]domain.Task, error) {
	id, err := parseID(ticketID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByTicket(ctx, s.db, id)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
