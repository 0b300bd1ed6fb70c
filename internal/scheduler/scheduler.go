// Package scheduler runs periodic maintenance over the invoice aggregates:
// a full reconcile of denormalized totals and counters, and an overdue scan.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/repairdesk/internal/audit/domain"
	"github.com/smallbiznis/repairdesk/internal/clock"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/repairdesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobReconcile   = "reconcile"
	JobOverdueScan = "overdue_scan"

	lockKeyPrefix = "repairdesk:scheduler:"
)

var (
	ErrInvalidConfig = errors.New("scheduler_invalid_config")
	errLockHeld      = errors.New("scheduler_lock_held")
)

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	InvoiceSvc invoicedomain.Service
	Locker     *Locker             `optional:"true"`
	Metrics    *obsmetrics.Metrics `optional:"true"`
	Config     Config              `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	invoiceSvc invoicedomain.Service
	locker     *Locker
	metrics    *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.InvoiceSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		genID:      p.GenID,
		clock:      p.Clock,
		invoiceSvc: p.InvoiceSvc,
		locker:     p.Locker,
		metrics:    p.Metrics,
	}, nil
}

// runJob bounds fn by timeout and, when a locker is configured, by a lease
// named after the job. Deadlines and a held lease are logged, not returned.
func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx = auditdomain.WithActor(ctx, auditdomain.ActorTypeSystem, "scheduler")
	ctx, run := s.startJobRun(ctx, name)
	log := s.log.With(zap.String("job", name), zap.String("run_id", run.runID))

	err := s.withLock(ctx, name, func() error {
		s.logJobStart(run)
		err := fn(ctx)
		if err != nil {
			run.IncError()
		}
		s.logJobFinish(run)
		return err
	})
	elapsed := s.clock.Now().Sub(run.startedAt)

	switch {
	case err == nil:
		s.metrics.RecordJob(ctx, name, obsmetrics.JobOutcomeOK, elapsed)
		return nil
	case errors.Is(err, errLockHeld):
		s.metrics.RecordJob(ctx, name, obsmetrics.JobOutcomeLockHeld, elapsed)
		log.Debug("job skipped, lock held by another worker")
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.metrics.RecordJob(ctx, name, obsmetrics.JobOutcomeTimeout, elapsed)
		log.Warn("job timed out", zap.Duration("timeout", timeout), zap.Error(err))
		return nil
	default:
		s.metrics.RecordJob(ctx, name, obsmetrics.JobOutcomeError, elapsed)
		return fmt.Errorf("%s: %w", name, err)
	}
}

func (s *Scheduler) withLock(ctx context.Context, name string, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	key := lockKeyPrefix + name
	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return errLockHeld
	}
	defer func() {
		// The job context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.log.Warn("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn()
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	jobs := []struct {
		Name    string
		Timeout time.Duration
		Run     func(context.Context) error
	}{
		{JobReconcile, s.cfg.ReconcileTimeout, s.ReconcileJob},
		{JobOverdueScan, s.cfg.OverdueTimeout, s.OverdueScanJob},
	}

	var err error
	for _, job := range jobs {
		err = errors.Join(err, s.runJob(parent, job.Name, job.Timeout, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ReconcileJob rebuilds every counter and invoice aggregate from source rows.
func (s *Scheduler) ReconcileJob(ctx context.Context) error {
	report, err := s.invoiceSvc.RecomputeAll(ctx)
	if err != nil {
		return err
	}
	run := jobRunFromContext(ctx)
	run.AddProcessed(report.Tickets + report.Invoices + report.Devices + report.Customers)
	return nil
}

// OverdueScanJob logs each open invoice past its due date.
func (s *Scheduler) OverdueScanJob(ctx context.Context) error {
	now := s.clock.Now()
	invoices, err := s.invoiceSvc.ListOverdue(ctx, now, s.cfg.OverdueBatchSize)
	if err != nil {
		return err
	}
	for _, invoice := range invoices {
		days := int(now.Sub(*invoice.DueDate).Hours() / 24)
		s.log.Warn("invoice.overdue",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("ticket_id", invoice.TicketID.String()),
			zap.String("status", string(invoice.Status)),
			zap.String("balance", invoice.Balance.StringFixed(2)),
			zap.Int("days_overdue", days),
		)
	}
	jobRunFromContext(ctx).AddProcessed(len(invoices))
	return nil
}
