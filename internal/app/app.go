// Package app assembles the fx graph shared by every repairdesk binary.
package app

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/adjustment"
	"github.com/smallbiznis/repairdesk/internal/audit"
	"github.com/smallbiznis/repairdesk/internal/clock"
	"github.com/smallbiznis/repairdesk/internal/config"
	"github.com/smallbiznis/repairdesk/internal/customer"
	"github.com/smallbiznis/repairdesk/internal/device"
	"github.com/smallbiznis/repairdesk/internal/invoice"
	"github.com/smallbiznis/repairdesk/internal/observability"
	"github.com/smallbiznis/repairdesk/internal/order"
	"github.com/smallbiznis/repairdesk/internal/rollup"
	"github.com/smallbiznis/repairdesk/internal/task"
	"github.com/smallbiznis/repairdesk/internal/ticket"
	"github.com/smallbiznis/repairdesk/internal/transaction"
	"github.com/smallbiznis/repairdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Core Infrastructure
var Core = fx.Options(
	config.Module,
	observability.Module,
	fx.Provide(RegisterSnowflake),
	db.Module,
	clock.Module,
)

// Functional Domains
var Domains = fx.Options(
	customer.Module,
	device.Module,
	ticket.Module,
	task.Module,
	order.Module,
	adjustment.Module,
	transaction.Module,
	invoice.Module,
	rollup.Module,
	audit.Module,
)

// Options returns the full graph plus any binary-specific options.
func Options(extra ...fx.Option) fx.Option {
	opts := []fx.Option{
		Core,
		Domains,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	}
	return fx.Options(append(opts, extra...)...)
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNode, err)
	}
	return node, nil
}
