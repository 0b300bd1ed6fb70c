// Package rollup keeps denormalized parent aggregates in step with their
// children. Services call it inside the transaction that mutated the child;
// every entry point re-reads current rows and writes parents without
// re-entering the cascade.
package rollup

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	"github.com/smallbiznis/repairdesk/internal/clock"
	customerdomain "github.com/smallbiznis/repairdesk/internal/customer/domain"
	devicedomain "github.com/smallbiznis/repairdesk/internal/device/domain"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	"github.com/smallbiznis/repairdesk/internal/invoice/totals"
	obslogger "github.com/smallbiznis/repairdesk/internal/observability/logger"
	"github.com/smallbiznis/repairdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/repairdesk/internal/order/domain"
	"github.com/smallbiznis/repairdesk/internal/progress"
	taskdomain "github.com/smallbiznis/repairdesk/internal/task/domain"
	ticketdomain "github.com/smallbiznis/repairdesk/internal/ticket/domain"
	transactiondomain "github.com/smallbiznis/repairdesk/internal/transaction/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tracerName = "github.com/smallbiznis/repairdesk/internal/rollup"

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`

	Customers    customerdomain.Repository
	Devices      devicedomain.Repository
	Tickets      ticketdomain.Repository
	Tasks        taskdomain.Repository
	Orders       orderdomain.Repository
	Invoices     invoicedomain.Repository
	Adjustments  adjustmentdomain.Repository
	Transactions transactiondomain.Repository
}

type Engine struct {
	log     *zap.Logger
	clock   clock.Clock
	metrics *metrics.Metrics
	tracer  trace.Tracer

	customers    customerdomain.Repository
	devices      devicedomain.Repository
	tickets      ticketdomain.Repository
	tasks        taskdomain.Repository
	orders       orderdomain.Repository
	invoices     invoicedomain.Repository
	adjustments  adjustmentdomain.Repository
	transactions transactiondomain.Repository
}

func New(p Params) *Engine {
	return &Engine{
		log:          p.Log.Named("rollup"),
		clock:        p.Clock,
		metrics:      p.Metrics,
		tracer:       otel.Tracer(tracerName),
		customers:    p.Customers,
		devices:      p.Devices,
		tickets:      p.Tickets,
		tasks:        p.Tasks,
		orders:       p.Orders,
		invoices:     p.Invoices,
		adjustments:  p.Adjustments,
		transactions: p.Transactions,
	}
}

// TaskChanged cascades a task mutation to its ticket and invoice.
func (e *Engine) TaskChanged(ctx context.Context, tx *gorm.DB, ticketID snowflake.ID, change Change) error {
	return e.lineItemChanged(ctx, tx, "task", ticketID, change)
}

// OrderChanged cascades an order mutation to its ticket and invoice.
func (e *Engine) OrderChanged(ctx context.Context, tx *gorm.DB, ticketID snowflake.ID, change Change) error {
	return e.lineItemChanged(ctx, tx, "order", ticketID, change)
}

// Status changes refresh ticket counters; cost and billable changes refresh
// ticket cost and invoice line totals. The two triggers are independent.
func (e *Engine) lineItemChanged(ctx context.Context, tx *gorm.DB, entity string, ticketID snowflake.ID, change Change) (err error) {
	ctx, span := e.start(ctx, entity+".changed", change)
	defer func() { finish(span, err) }()

	if change.Touches(FieldStatus) {
		if err := e.refreshTicketCounters(ctx, tx, entity, ticketID); err != nil {
			return err
		}
	}
	if change.Touches(FieldCost, FieldIsBillable) {
		if err := e.refreshLineTotals(ctx, tx, entity, ticketID); err != nil {
			return err
		}
	}
	return nil
}

// AdjustmentChanged re-sums the invoice's adjustment categories and net.
func (e *Engine) AdjustmentChanged(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, change Change) (err error) {
	if !change.Touches(FieldAmount, FieldPercentage, FieldType) {
		return nil
	}
	ctx, span := e.start(ctx, "adjustment.changed", change)
	defer func() { finish(span, err) }()

	inv, err := e.loadInvoice(ctx, tx, "adjustment", invoiceID)
	if err != nil {
		return err
	}
	adjustments, err := e.adjustments.ListByInvoice(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	totals.ApplyAdjustments(inv, adjustments)
	return e.saveInvoice(ctx, tx, inv, inv.Status, "adjustments")
}

// TransactionChanged re-sums payments and refunds and derives the status.
func (e *Engine) TransactionChanged(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, change Change) (err error) {
	if !change.Touches(FieldAmount, FieldType) {
		return nil
	}
	ctx, span := e.start(ctx, "transaction.changed", change)
	defer func() { finish(span, err) }()

	inv, err := e.loadInvoice(ctx, tx, "transaction", invoiceID)
	if err != nil {
		return err
	}
	previous := inv.Status
	transactions, err := e.transactions.ListByInvoice(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	totals.ApplyTransactions(inv, transactions)
	return e.saveInvoice(ctx, tx, inv, previous, "transactions")
}

// TicketChanged refreshes device and customer ticket counters.
func (e *Engine) TicketChanged(ctx context.Context, tx *gorm.DB, ticket ticketdomain.Ticket, change Change) (err error) {
	if !change.Touches(FieldStatus) {
		return nil
	}
	ctx, span := e.start(ctx, "ticket.changed", change)
	defer func() { finish(span, err) }()

	if err := e.refreshDeviceCounters(ctx, tx, "ticket", ticket.DeviceID); err != nil {
		return err
	}
	return e.refreshCustomerCounters(ctx, tx, "ticket", ticket.CustomerID)
}

// DeviceChanged refreshes the owning customer's counters.
func (e *Engine) DeviceChanged(ctx context.Context, tx *gorm.DB, device devicedomain.Device, change Change) (err error) {
	if change.Event == EventUpdated {
		return nil
	}
	ctx, span := e.start(ctx, "device.changed", change)
	defer func() { finish(span, err) }()

	return e.refreshCustomerCounters(ctx, tx, "device", device.CustomerID)
}

// RecomputeInvoice rebuilds every derived invoice field from source rows.
func (e *Engine) RecomputeInvoice(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (inv *invoicedomain.Invoice, err error) {
	ctx, span := e.tracer.Start(ctx, "rollup.invoice.recompute")
	defer func() { finish(span, err) }()

	inv, err = e.invoices.FindByID(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrNotFound
	}
	previous := inv.Status

	var src totals.Sources
	if src.Tasks, err = e.tasks.ListByTicket(ctx, tx, inv.TicketID); err != nil {
		return nil, err
	}
	if src.Orders, err = e.orders.ListByTicket(ctx, tx, inv.TicketID); err != nil {
		return nil, err
	}
	if src.Adjustments, err = e.adjustments.ListByInvoice(ctx, tx, invoiceID); err != nil {
		return nil, err
	}
	if src.Transactions, err = e.transactions.ListByInvoice(ctx, tx, invoiceID); err != nil {
		return nil, err
	}
	totals.Recompute(inv, src)

	if err := e.saveInvoice(ctx, tx, inv, previous, "full"); err != nil {
		return nil, err
	}
	return inv, nil
}

// SyncInvoiceTotal sets total to the net amount and settles the balance.
func (e *Engine) SyncInvoiceTotal(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (*invoicedomain.Invoice, error) {
	return e.settle(ctx, tx, invoiceID, "sync_total", totals.SyncTotal)
}

// SetInvoiceTotal overrides total with a manual amount and settles the balance.
func (e *Engine) SetInvoiceTotal(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, total decimal.Decimal) (*invoicedomain.Invoice, error) {
	return e.settle(ctx, tx, invoiceID, "set_total", func(inv *invoicedomain.Invoice) {
		totals.SetTotal(inv, total)
	})
}

func (e *Engine) settle(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, scope string, apply func(*invoicedomain.Invoice)) (inv *invoicedomain.Invoice, err error) {
	ctx, span := e.tracer.Start(ctx, "rollup.invoice."+scope)
	defer func() { finish(span, err) }()

	inv, err = e.invoices.FindByID(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrNotFound
	}
	previous := inv.Status
	apply(inv)
	if err := e.saveInvoice(ctx, tx, inv, previous, scope); err != nil {
		return nil, err
	}
	return inv, nil
}

// RecomputeAll rebuilds every counter and invoice aggregate.
func (e *Engine) RecomputeAll(ctx context.Context, tx *gorm.DB) (report invoicedomain.RecomputeReport, err error) {
	ctx, span := e.tracer.Start(ctx, "rollup.recompute_all")
	defer func() { finish(span, err) }()

	ticketIDs, err := e.tickets.ListIDs(ctx, tx)
	if err != nil {
		return report, err
	}
	for _, id := range ticketIDs {
		if err := e.refreshTicketCounters(ctx, tx, "ticket", id); err != nil {
			return report, err
		}
		if err := e.refreshTicketCost(ctx, tx, id); err != nil {
			return report, err
		}
		report.Tickets++
	}

	invoiceIDs, err := e.invoices.ListIDs(ctx, tx)
	if err != nil {
		return report, err
	}
	for _, id := range invoiceIDs {
		if _, err := e.RecomputeInvoice(ctx, tx, id); err != nil {
			return report, err
		}
		report.Invoices++
	}

	deviceIDs, err := e.devices.ListIDs(ctx, tx)
	if err != nil {
		return report, err
	}
	for _, id := range deviceIDs {
		if err := e.refreshDeviceCounters(ctx, tx, "device", id); err != nil {
			return report, err
		}
		report.Devices++
	}

	customerIDs, err := e.customers.ListIDs(ctx, tx)
	if err != nil {
		return report, err
	}
	for _, id := range customerIDs {
		if err := e.refreshCustomerCounters(ctx, tx, "customer", id); err != nil {
			return report, err
		}
		report.Customers++
	}

	obslogger.WithContext(ctx, e.log).Info("recomputed all aggregates",
		zap.Int("tickets", report.Tickets),
		zap.Int("invoices", report.Invoices),
		zap.Int("devices", report.Devices),
		zap.Int("customers", report.Customers),
	)
	return report, nil
}

func (e *Engine) refreshTicketCounters(ctx context.Context, tx *gorm.DB, child string, ticketID snowflake.ID) error {
	ticket, err := e.tickets.FindByID(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return e.dangling(ctx, child, "ticket", ticketID)
	}

	tasks, err := e.tasks.ListByTicket(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	orders, err := e.orders.ListByTicket(ctx, tx, ticketID)
	if err != nil {
		return err
	}

	taskStatuses := make([]taskdomain.TaskStatus, 0, len(tasks))
	for _, t := range tasks {
		taskStatuses = append(taskStatuses, t.Status)
	}
	orderStatuses := make([]orderdomain.OrderStatus, 0, len(orders))
	for _, o := range orders {
		orderStatuses = append(orderStatuses, o.Status)
	}

	counters := ticketdomain.Counters{
		TasksCount:         int64(len(tasks)),
		PendingTasksCount:  progress.CountPending(taskStatuses),
		OrdersCount:        int64(len(orders)),
		PendingOrdersCount: progress.CountPending(orderStatuses),
	}
	e.metrics.RecordRecompute(ctx, "ticket", "counters")
	return e.tickets.UpdateCounters(ctx, tx, ticketID, counters)
}

func (e *Engine) refreshTicketCost(ctx context.Context, tx *gorm.DB, ticketID snowflake.ID) error {
	tasks, err := e.tasks.ListByTicket(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	orders, err := e.orders.ListByTicket(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	cost := totals.SumBillable(tasks).Add(totals.SumBillable(orders)).Round(totals.Scale)
	e.metrics.RecordRecompute(ctx, "ticket", "cost")
	return e.tickets.UpdateTotalCost(ctx, tx, ticketID, cost)
}

// refreshLineTotals updates ticket cost and invoice line totals. When the
// subtotal moved, percentage adjustments are re-summed; net is refreshed
// either way.
func (e *Engine) refreshLineTotals(ctx context.Context, tx *gorm.DB, child string, ticketID snowflake.ID) error {
	ticket, err := e.tickets.FindByID(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return e.dangling(ctx, child, "ticket", ticketID)
	}
	inv, err := e.invoices.FindByTicket(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	if inv == nil {
		return e.dangling(ctx, "ticket", "invoice", ticketID)
	}

	tasks, err := e.tasks.ListByTicket(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	orders, err := e.orders.ListByTicket(ctx, tx, ticketID)
	if err != nil {
		return err
	}

	previous := inv.Subtotal
	totals.ApplyLineTotals(inv, tasks, orders)
	if err := e.tickets.UpdateTotalCost(ctx, tx, ticketID, inv.Subtotal); err != nil {
		return err
	}

	scope := "line_totals"
	if !inv.Subtotal.Equal(previous) {
		relative, err := e.adjustments.HasPercentage(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		if relative {
			adjustments, err := e.adjustments.ListByInvoice(ctx, tx, inv.ID)
			if err != nil {
				return err
			}
			totals.ApplyAdjustments(inv, adjustments)
			scope = "line_totals_adjustments"
		} else {
			totals.ApplyNet(inv)
		}
	}
	return e.saveInvoice(ctx, tx, inv, inv.Status, scope)
}

func (e *Engine) refreshDeviceCounters(ctx context.Context, tx *gorm.DB, child string, deviceID snowflake.ID) error {
	device, err := e.devices.FindByID(ctx, tx, deviceID)
	if err != nil {
		return err
	}
	if device == nil {
		return e.dangling(ctx, child, "device", deviceID)
	}
	statuses, err := e.tickets.StatusesByDevice(ctx, tx, deviceID)
	if err != nil {
		return err
	}
	e.metrics.RecordRecompute(ctx, "device", "counters")
	return e.devices.UpdateCounters(ctx, tx, deviceID, devicedomain.Counters{
		TicketsCount:        int64(len(statuses)),
		PendingTicketsCount: progress.CountPending(statuses),
	})
}

func (e *Engine) refreshCustomerCounters(ctx context.Context, tx *gorm.DB, child string, customerID snowflake.ID) error {
	customer, err := e.customers.FindByID(ctx, tx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return e.dangling(ctx, child, "customer", customerID)
	}
	devices, err := e.devices.CountByCustomer(ctx, tx, customerID)
	if err != nil {
		return err
	}
	statuses, err := e.tickets.StatusesByCustomer(ctx, tx, customerID)
	if err != nil {
		return err
	}
	e.metrics.RecordRecompute(ctx, "customer", "counters")
	return e.customers.UpdateCounters(ctx, tx, customerID, customerdomain.Counters{
		DevicesCount:        devices,
		TicketsCount:        int64(len(statuses)),
		PendingTicketsCount: progress.CountPending(statuses),
	})
}

func (e *Engine) loadInvoice(ctx context.Context, tx *gorm.DB, child string, invoiceID snowflake.ID) (*invoicedomain.Invoice, error) {
	inv, err := e.invoices.FindByID(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, e.dangling(ctx, child, "invoice", invoiceID)
	}
	return inv, nil
}

func (e *Engine) saveInvoice(ctx context.Context, tx *gorm.DB, inv *invoicedomain.Invoice, previous invoicedomain.InvoiceStatus, scope string) error {
	inv.UpdatedAt = e.clock.Now()
	if err := e.invoices.SaveAggregates(ctx, tx, inv); err != nil {
		return err
	}
	e.metrics.RecordRecompute(ctx, "invoice", scope)
	log := obslogger.WithContext(ctx, e.log)
	if inv.Status != previous {
		e.metrics.RecordStatusChange(ctx, string(previous), string(inv.Status))
		log.Info("invoice status derived",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(inv.Status)),
		)
	}
	log.Debug("invoice recomputed",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("ticket_id", inv.TicketID.String()),
		zap.String("scope", scope),
		zap.String("subtotal", inv.Subtotal.StringFixed(totals.Scale)),
		zap.String("net_amount", inv.NetAmount.StringFixed(totals.Scale)),
		zap.String("balance", inv.Balance.StringFixed(totals.Scale)),
	)
	return nil
}

func (e *Engine) dangling(ctx context.Context, child, parent string, parentID snowflake.ID) error {
	e.metrics.RecordDanglingParent(ctx, child)
	obslogger.WithContext(ctx, e.log).Error("parent missing during recompute",
		zap.String("child", child),
		zap.String("parent", parent),
		zap.String("parent_id", parentID.String()),
	)
	return fmt.Errorf("%w: %s references missing %s %s", ErrDanglingParent, child, parent, parentID)
}

func (e *Engine) start(ctx context.Context, name string, change Change) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "rollup."+name, trace.WithAttributes(
		attribute.String("rollup.event", change.Event.String()),
		attribute.Int("rollup.fields", len(change.Fields)),
	))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
