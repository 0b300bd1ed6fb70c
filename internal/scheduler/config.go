package scheduler

import (
	"time"

	"github.com/smallbiznis/repairdesk/internal/config"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval      time.Duration
	ReconcileTimeout time.Duration
	OverdueTimeout   time.Duration
	OverdueBatchSize int
	LockTTL          time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval:      5 * time.Minute,
		ReconcileTimeout: 10 * time.Minute,
		OverdueTimeout:   30 * time.Second,
		OverdueBatchSize: 100,
		LockTTL:          15 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:      time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
		OverdueBatchSize: cfg.Scheduler.OverdueBatch,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.ReconcileTimeout <= 0 {
		c.ReconcileTimeout = defaults.ReconcileTimeout
	}
	if c.OverdueTimeout <= 0 {
		c.OverdueTimeout = defaults.OverdueTimeout
	}
	if c.OverdueBatchSize <= 0 {
		c.OverdueBatchSize = defaults.OverdueBatchSize
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	// A lock must outlive the job it guards.
	if c.LockTTL < c.ReconcileTimeout {
		c.LockTTL = c.ReconcileTimeout
	}
	return c
}
