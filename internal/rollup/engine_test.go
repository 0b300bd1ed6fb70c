package rollup_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	adjustmentrepository "github.com/smallbiznis/repairdesk/internal/adjustment/repository"
	"github.com/smallbiznis/repairdesk/internal/clock"
	customerdomain "github.com/smallbiznis/repairdesk/internal/customer/domain"
	customerrepository "github.com/smallbiznis/repairdesk/internal/customer/repository"
	"github.com/smallbiznis/repairdesk/internal/dbtest"
	devicedomain "github.com/smallbiznis/repairdesk/internal/device/domain"
	devicerepository "github.com/smallbiznis/repairdesk/internal/device/repository"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/repairdesk/internal/invoice/repository"
	orderdomain "github.com/smallbiznis/repairdesk/internal/order/domain"
	orderrepository "github.com/smallbiznis/repairdesk/internal/order/repository"
	"github.com/smallbiznis/repairdesk/internal/rollup"
	taskdomain "github.com/smallbiznis/repairdesk/internal/task/domain"
	taskrepository "github.com/smallbiznis/repairdesk/internal/task/repository"
	ticketdomain "github.com/smallbiznis/repairdesk/internal/ticket/domain"
	ticketrepository "github.com/smallbiznis/repairdesk/internal/ticket/repository"
	transactiondomain "github.com/smallbiznis/repairdesk/internal/transaction/domain"
	transactionrepository "github.com/smallbiznis/repairdesk/internal/transaction/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	engine *rollup.Engine

	customers    customerdomain.Repository
	devices      devicedomain.Repository
	tickets      ticketdomain.Repository
	tasks        taskdomain.Repository
	orders       orderdomain.Repository
	invoices     invoicedomain.Repository
	adjustments  adjustmentdomain.Repository
	transactions transactiondomain.Repository

	customer customerdomain.Customer
	device   devicedomain.Device
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		ctx:          context.Background(),
		db:           dbtest.Open(t),
		node:         node,
		clock:        clock.NewFakeClock(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)),
		customers:    customerrepository.Provide(),
		devices:      devicerepository.Provide(),
		tickets:      ticketrepository.Provide(),
		tasks:        taskrepository.Provide(),
		orders:       orderrepository.Provide(),
		invoices:     invoicerepository.Provide(),
		adjustments:  adjustmentrepository.Provide(),
		transactions: transactionrepository.Provide(),
	}
	f.engine = rollup.New(rollup.Params{
		Log:          zap.NewNop(),
		Clock:        f.clock,
		Customers:    f.customers,
		Devices:      f.devices,
		Tickets:      f.tickets,
		Tasks:        f.tasks,
		Orders:       f.orders,
		Invoices:     f.invoices,
		Adjustments:  f.adjustments,
		Transactions: f.transactions,
	})

	now := f.clock.Now()
	f.customer = customerdomain.Customer{ID: node.Generate(), Name: "Ada", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.customers.Insert(f.ctx, f.db, &f.customer))
	f.device = devicedomain.Device{ID: node.Generate(), CustomerID: f.customer.ID, Type: devicedomain.DeviceTypePhone, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.devices.Insert(f.ctx, f.db, &f.device))
	return f
}

func (f *fixture) ticket(t *testing.T, status ticketdomain.TicketStatus) (ticketdomain.Ticket, invoicedomain.Invoice) {
	t.Helper()
	now := f.clock.Now()
	ticket := ticketdomain.Ticket{
		ID:         f.node.Generate(),
		CustomerID: f.customer.ID,
		DeviceID:   f.device.ID,
		Title:      "Cracked screen",
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.tickets.Insert(f.ctx, f.db, &ticket))
	invoice := invoicedomain.Invoice{
		ID:        f.node.Generate(),
		TicketID:  ticket.ID,
		Status:    invoicedomain.InvoiceStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.invoices.Insert(f.ctx, f.db, &invoice))
	require.NoError(t, f.engine.TicketChanged(f.ctx, f.db, ticket, rollup.Created()))
	return ticket, invoice
}

func (f *fixture) task(t *testing.T, ticketID snowflake.ID, cost string, status taskdomain.TaskStatus) taskdomain.Task {
	t.Helper()
	task := taskdomain.Task{
		ID:          f.node.Generate(),
		TicketID:    ticketID,
		Description: "labour",
		Type:        taskdomain.TaskTypeRepair,
		Status:      status,
		Cost:        decimal.RequireFromString(cost),
		IsBillable:  true,
		CreatedAt:   f.clock.Now(),
		UpdatedAt:   f.clock.Now(),
	}
	task.Normalize()
	require.NoError(t, f.tasks.Insert(f.ctx, f.db, &task))
	require.NoError(t, f.engine.TaskChanged(f.ctx, f.db, ticketID, rollup.Created()))
	return task
}

func (f *fixture) order(t *testing.T, ticketID snowflake.ID, cost string) orderdomain.Order {
	t.Helper()
	order := orderdomain.Order{
		ID:         f.node.Generate(),
		TicketID:   ticketID,
		Name:       "screen",
		Type:       orderdomain.OrderTypePart,
		Status:     orderdomain.OrderStatusNew,
		Cost:       decimal.RequireFromString(cost),
		IsBillable: true,
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	}
	require.NoError(t, f.orders.Insert(f.ctx, f.db, &order))
	require.NoError(t, f.engine.OrderChanged(f.ctx, f.db, ticketID, rollup.Created()))
	return order
}

func (f *fixture) adjustment(t *testing.T, invoiceID snowflake.ID, typ adjustmentdomain.AdjustmentType, amount string, pct string) adjustmentdomain.Adjustment {
	t.Helper()
	adj := adjustmentdomain.Adjustment{
		ID:        f.node.Generate(),
		InvoiceID: invoiceID,
		Type:      typ,
		Reason:    adjustmentdomain.ReasonOther,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	if amount != "" {
		adj.Amount = decimal.RequireFromString(amount)
	}
	if pct != "" {
		adj.Percentage = decimal.NewNullDecimal(decimal.RequireFromString(pct))
	}
	require.NoError(t, f.adjustments.Insert(f.ctx, f.db, &adj))
	require.NoError(t, f.engine.AdjustmentChanged(f.ctx, f.db, invoiceID, rollup.Created()))
	return adj
}

func (f *fixture) transaction(t *testing.T, invoiceID snowflake.ID, typ transactiondomain.TransactionType, amount string) transactiondomain.Transaction {
	t.Helper()
	txn := transactiondomain.Transaction{
		ID:        f.node.Generate(),
		InvoiceID: invoiceID,
		Type:      typ,
		Method:    transactiondomain.MethodCash,
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.transactions.Insert(f.ctx, f.db, &txn))
	require.NoError(t, f.engine.TransactionChanged(f.ctx, f.db, invoiceID, rollup.Created()))
	return txn
}

func (f *fixture) reloadInvoice(t *testing.T, id snowflake.ID) invoicedomain.Invoice {
	t.Helper()
	inv, err := f.invoices.FindByID(f.ctx, f.db, id)
	require.NoError(t, err)
	require.NotNil(t, inv)
	return *inv
}

func (f *fixture) reloadTicket(t *testing.T, id snowflake.ID) ticketdomain.Ticket {
	t.Helper()
	ticket, err := f.tickets.FindByID(f.ctx, f.db, id)
	require.NoError(t, err)
	require.NotNil(t, ticket)
	return *ticket
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, decimal.RequireFromString(want).StringFixed(2), got.StringFixed(2), msgAndArgs...)
}

func TestTaskCreatedRefreshesTicketAndInvoice(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusNew)

	f.task(t, ticket.ID, "60", taskdomain.TaskStatusNew)
	f.task(t, ticket.ID, "40", taskdomain.TaskStatusCompleted)
	f.order(t, ticket.ID, "45")

	reloaded := f.reloadTicket(t, ticket.ID)
	assert.EqualValues(t, 2, reloaded.TasksCount)
	assert.EqualValues(t, 1, reloaded.PendingTasksCount)
	assert.EqualValues(t, 1, reloaded.OrdersCount)
	assert.EqualValues(t, 1, reloaded.PendingOrdersCount)
	assertAmount(t, "145", reloaded.TotalCost)

	inv := f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "100", inv.TaskTotal)
	assertAmount(t, "45", inv.OrderTotal)
	assertAmount(t, "145", inv.Subtotal)
	assertAmount(t, "145", inv.NetAmount)
	assertAmount(t, "0", inv.Total)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)
}

func TestStatusAndCostTriggersAreIndependent(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusNew)
	task := f.task(t, ticket.ID, "60", taskdomain.TaskStatusNew)

	// Change both columns behind the cascade's back, then report only the status.
	require.NoError(t, f.db.Exec(`UPDATE tasks SET status = ?, cost = ? WHERE id = ?`,
		taskdomain.TaskStatusCompleted, "80", task.ID).Error)
	require.NoError(t, f.engine.TaskChanged(f.ctx, f.db, ticket.ID, rollup.Updated(rollup.FieldStatus)))

	assert.EqualValues(t, 0, f.reloadTicket(t, ticket.ID).PendingTasksCount)
	assertAmount(t, "60", f.reloadInvoice(t, invoice.ID).TaskTotal)

	require.NoError(t, f.engine.TaskChanged(f.ctx, f.db, ticket.ID, rollup.Updated(rollup.FieldCost)))
	assertAmount(t, "80", f.reloadInvoice(t, invoice.ID).TaskTotal)
	assertAmount(t, "80", f.reloadTicket(t, ticket.ID).TotalCost)
}

func TestUntrackedUpdateIsNoop(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusNew)
	task := f.task(t, ticket.ID, "60", taskdomain.TaskStatusNew)

	require.NoError(t, f.db.Exec(`UPDATE tasks SET cost = ? WHERE id = ?`, "90", task.ID).Error)
	require.NoError(t, f.engine.TaskChanged(f.ctx, f.db, ticket.ID, rollup.Updated()))

	assertAmount(t, "60", f.reloadInvoice(t, invoice.ID).TaskTotal)
}

func TestPercentageAdjustmentFollowsSubtotal(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusInProgress)
	f.task(t, ticket.ID, "1060", taskdomain.TaskStatusNew)
	f.adjustment(t, invoice.ID, adjustmentdomain.AdjustmentTypeDiscount, "", "8")

	inv := f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "84.80", inv.DiscountAmount)
	assertAmount(t, "975.20", inv.NetAmount)

	f.task(t, ticket.ID, "140", taskdomain.TaskStatusNew)

	inv = f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "1200", inv.Subtotal)
	assertAmount(t, "96", inv.DiscountAmount)
	assertAmount(t, "1104", inv.NetAmount)
}

func TestFixedAdjustmentsSkipResumOnSubtotalChange(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusInProgress)
	f.task(t, ticket.ID, "100", taskdomain.TaskStatusNew)
	adj := f.adjustment(t, invoice.ID, adjustmentdomain.AdjustmentTypeFee, "10", "")

	// An out-of-band edit is not picked up by a subtotal change when every
	// adjustment is fixed, but net still follows the new subtotal.
	require.NoError(t, f.db.Exec(`UPDATE adjustments SET amount = ? WHERE id = ?`, "25", adj.ID).Error)
	f.task(t, ticket.ID, "50", taskdomain.TaskStatusNew)

	inv := f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "150", inv.Subtotal)
	assertAmount(t, "10", inv.FeeAmount)
	assertAmount(t, "160", inv.NetAmount)

	require.NoError(t, f.engine.AdjustmentChanged(f.ctx, f.db, invoice.ID, rollup.Updated(rollup.FieldAmount)))
	inv = f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "25", inv.FeeAmount)
	assertAmount(t, "175", inv.NetAmount)
}

func TestAdjustmentUpdateWithoutMoneyFieldsIsIgnored(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusInProgress)
	f.task(t, ticket.ID, "100", taskdomain.TaskStatusNew)
	adj := f.adjustment(t, invoice.ID, adjustmentdomain.AdjustmentTypeDiscount, "10", "")

	require.NoError(t, f.db.Exec(`UPDATE adjustments SET amount = ? WHERE id = ?`, "30", adj.ID).Error)
	require.NoError(t, f.engine.AdjustmentChanged(f.ctx, f.db, invoice.ID, rollup.Updated()))
	assertAmount(t, "10", f.reloadInvoice(t, invoice.ID).DiscountAmount)
}

func TestScenarioFixedAndPercentageMix(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusInProgress)
	f.task(t, ticket.ID, "60", taskdomain.TaskStatusNew)
	f.task(t, ticket.ID, "40", taskdomain.TaskStatusNew)
	f.order(t, ticket.ID, "45")
	f.adjustment(t, invoice.ID, adjustmentdomain.AdjustmentTypeDiscount, "", "10")

	inv := f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "145", inv.Subtotal)
	assertAmount(t, "14.50", inv.DiscountAmount)
	assertAmount(t, "130.50", inv.NetAmount)

	synced, err := f.engine.SyncInvoiceTotal(f.ctx, f.db, invoice.ID)
	require.NoError(t, err)
	assertAmount(t, "130.50", synced.Total)

	f.transaction(t, invoice.ID, transactiondomain.TransactionTypePayment, "130.50")
	inv = f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "130.50", inv.PaidAmount)
	assertAmount(t, "0", inv.Balance)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, inv.Status)
}

func TestScenarioRefundOverridesStatus(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusResolved)
	f.task(t, ticket.ID, "135", taskdomain.TaskStatusCompleted)
	_, err := f.engine.SyncInvoiceTotal(f.ctx, f.db, invoice.ID)
	require.NoError(t, err)

	f.transaction(t, invoice.ID, transactiondomain.TransactionTypePayment, "160")
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, f.reloadInvoice(t, invoice.ID).Status)

	f.transaction(t, invoice.ID, transactiondomain.TransactionTypeRefund, "25")
	inv := f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "0", inv.Balance)
	assertAmount(t, "25", inv.RefundedAmount)
	assert.Equal(t, invoicedomain.InvoiceStatusRefunded, inv.Status)
}

func TestScenarioCancelledOrderDropsFromTotals(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusAwaitingParts)
	f.order(t, ticket.ID, "20")
	order := f.order(t, ticket.ID, "50")
	assertAmount(t, "70", f.reloadInvoice(t, invoice.ID).OrderTotal)

	order.Status = orderdomain.OrderStatusCancelled
	order.Normalize()
	require.False(t, order.IsBillable)
	require.NoError(t, f.orders.Update(f.ctx, f.db, &order))
	require.NoError(t, f.engine.OrderChanged(f.ctx, f.db, ticket.ID,
		rollup.Updated(rollup.FieldStatus, rollup.FieldIsBillable)))

	inv := f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "20", inv.OrderTotal)
	assertAmount(t, "20", inv.Subtotal)
	assert.EqualValues(t, 1, f.reloadTicket(t, ticket.ID).PendingOrdersCount)
}

func TestScenarioZeroStateInvoice(t *testing.T) {
	f := newFixture(t)
	_, invoice := f.ticket(t, ticketdomain.TicketStatusNew)

	inv, err := f.engine.RecomputeInvoice(f.ctx, f.db, invoice.ID)
	require.NoError(t, err)
	assertAmount(t, "0", inv.Subtotal)
	assertAmount(t, "0", inv.NetAmount)
	assertAmount(t, "0", inv.Total)
	assertAmount(t, "0", inv.Balance)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)
}

func TestRecomputeInvoiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusInProgress)
	f.task(t, ticket.ID, "33.33", taskdomain.TaskStatusNew)
	f.order(t, ticket.ID, "66.67")
	f.adjustment(t, invoice.ID, adjustmentdomain.AdjustmentTypeCompensation, "", "7")
	f.adjustment(t, invoice.ID, adjustmentdomain.AdjustmentTypeFee, "2.5", "")
	f.transaction(t, invoice.ID, transactiondomain.TransactionTypePayment, "20")

	_, err := f.engine.RecomputeInvoice(f.ctx, f.db, invoice.ID)
	require.NoError(t, err)
	first := f.reloadInvoice(t, invoice.ID)

	_, err = f.engine.RecomputeInvoice(f.ctx, f.db, invoice.ID)
	require.NoError(t, err)
	second := f.reloadInvoice(t, invoice.ID)

	for _, pair := range [][2]decimal.Decimal{
		{first.Subtotal, second.Subtotal},
		{first.CompensationAmount, second.CompensationAmount},
		{first.FeeAmount, second.FeeAmount},
		{first.NetAmount, second.NetAmount},
		{first.PaidAmount, second.PaidAmount},
		{first.Balance, second.Balance},
	} {
		assert.Equal(t, pair[0].StringFixed(2), pair[1].StringFixed(2))
	}
	assert.Equal(t, first.Status, second.Status)
	assertAmount(t, "7", second.CompensationAmount)
	assertAmount(t, "95.50", second.NetAmount)
}

func TestDanglingParentFailsLoudly(t *testing.T) {
	f := newFixture(t)

	err := f.engine.TaskChanged(f.ctx, f.db, f.node.Generate(), rollup.Created())
	require.ErrorIs(t, err, rollup.ErrDanglingParent)

	err = f.engine.TransactionChanged(f.ctx, f.db, f.node.Generate(), rollup.Deleted())
	require.ErrorIs(t, err, rollup.ErrDanglingParent)

	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusNew)
	require.NoError(t, f.db.Exec(`DELETE FROM invoices WHERE id = ?`, invoice.ID).Error)
	err = f.engine.OrderChanged(f.ctx, f.db, ticket.ID, rollup.Updated(rollup.FieldCost))
	require.ErrorIs(t, err, rollup.ErrDanglingParent)
}

func TestTicketChangedRefreshesDeviceAndCustomer(t *testing.T) {
	f := newFixture(t)
	f.ticket(t, ticketdomain.TicketStatusNew)
	closed, _ := f.ticket(t, ticketdomain.TicketStatusInProgress)

	closed.Status = ticketdomain.TicketStatusClosed
	require.NoError(t, f.tickets.Update(f.ctx, f.db, &closed))
	require.NoError(t, f.engine.TicketChanged(f.ctx, f.db, closed, rollup.Updated(rollup.FieldStatus)))

	device, err := f.devices.FindByID(f.ctx, f.db, f.device.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, device.TicketsCount)
	assert.EqualValues(t, 1, device.PendingTicketsCount)

	customer, err := f.customers.FindByID(f.ctx, f.db, f.customer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, customer.TicketsCount)
	assert.EqualValues(t, 1, customer.PendingTicketsCount)
	assert.EqualValues(t, 1, customer.DevicesCount)

	require.NoError(t, f.db.Exec(`UPDATE customers SET devices_count = 0`).Error)
	require.NoError(t, f.engine.DeviceChanged(f.ctx, f.db, f.device, rollup.Updated(rollup.FieldType)))
	customer, err = f.customers.FindByID(f.ctx, f.db, f.customer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, customer.DevicesCount)

	require.NoError(t, f.engine.DeviceChanged(f.ctx, f.db, f.device, rollup.Created()))
	customer, err = f.customers.FindByID(f.ctx, f.db, f.customer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, customer.DevicesCount)
}

func TestRecomputeAllHealsDrift(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusInProgress)
	f.task(t, ticket.ID, "100", taskdomain.TaskStatusNew)
	f.adjustment(t, invoice.ID, adjustmentdomain.AdjustmentTypeDiscount, "", "10")

	require.NoError(t, f.db.Exec(`UPDATE tickets SET tasks_count = 9, total_cost = 1`).Error)
	require.NoError(t, f.db.Exec(`UPDATE invoices SET subtotal = 5, discount_amount = 3, net_amount = 2`).Error)
	require.NoError(t, f.db.Exec(`UPDATE customers SET devices_count = 4`).Error)

	report, err := f.engine.RecomputeAll(f.ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.RecomputeReport{Tickets: 1, Invoices: 1, Devices: 1, Customers: 1}, report)

	reloaded := f.reloadTicket(t, ticket.ID)
	assert.EqualValues(t, 1, reloaded.TasksCount)
	assertAmount(t, "100", reloaded.TotalCost)

	inv := f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "100", inv.Subtotal)
	assertAmount(t, "10", inv.DiscountAmount)
	assertAmount(t, "90", inv.NetAmount)

	customer, err := f.customers.FindByID(f.ctx, f.db, f.customer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, customer.DevicesCount)
}

func TestDeletedLineItemsDropFromTotals(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusInProgress)
	task := f.task(t, ticket.ID, "120", taskdomain.TaskStatusNew)
	order := f.order(t, ticket.ID, "80")
	f.adjustment(t, invoice.ID, adjustmentdomain.AdjustmentTypeDiscount, "", "10")

	inv := f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "200", inv.Subtotal)
	assertAmount(t, "180", inv.NetAmount)

	require.NoError(t, f.tasks.Delete(f.ctx, f.db, task.ID))
	require.NoError(t, f.engine.TaskChanged(f.ctx, f.db, ticket.ID, rollup.Deleted()))

	inv = f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "0", inv.TaskTotal)
	assertAmount(t, "80", inv.Subtotal)
	assertAmount(t, "8", inv.DiscountAmount)
	assertAmount(t, "72", inv.NetAmount)
	assert.EqualValues(t, 0, f.reloadTicket(t, ticket.ID).TasksCount)

	require.NoError(t, f.orders.Delete(f.ctx, f.db, order.ID))
	require.NoError(t, f.engine.OrderChanged(f.ctx, f.db, ticket.ID, rollup.Deleted()))

	inv = f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "0", inv.Subtotal)
	assertAmount(t, "0", inv.DiscountAmount)
	assertAmount(t, "0", inv.NetAmount)
	assertAmount(t, "0", f.reloadTicket(t, ticket.ID).TotalCost)
}

func TestDeletedPercentageAdjustmentClearsCategory(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusInProgress)
	f.task(t, ticket.ID, "150", taskdomain.TaskStatusNew)
	adj := f.adjustment(t, invoice.ID, adjustmentdomain.AdjustmentTypeCompensation, "", "20")

	assertAmount(t, "30", f.reloadInvoice(t, invoice.ID).CompensationAmount)

	require.NoError(t, f.adjustments.Delete(f.ctx, f.db, adj.ID))
	require.NoError(t, f.engine.AdjustmentChanged(f.ctx, f.db, invoice.ID, rollup.Deleted()))

	inv := f.reloadInvoice(t, invoice.ID)
	assertAmount(t, "0", inv.CompensationAmount)
	assertAmount(t, "150", inv.NetAmount)
}

func TestDeletedOnlyPaymentFallsBackToSent(t *testing.T) {
	f := newFixture(t)
	ticket, invoice := f.ticket(t, ticketdomain.TicketStatusResolved)
	f.task(t, ticket.ID, "75", taskdomain.TaskStatusCompleted)
	_, err := f.engine.SyncInvoiceTotal(f.ctx, f.db, invoice.ID)
	require.NoError(t, err)

	payment := f.transaction(t, invoice.ID, transactiondomain.TransactionTypePayment, "75")
	require.Equal(t, invoicedomain.InvoiceStatusPaid, f.reloadInvoice(t, invoice.ID).Status)

	require.NoError(t, f.transactions.Delete(f.ctx, f.db, payment.ID))
	require.NoError(t, f.engine.TransactionChanged(f.ctx, f.db, invoice.ID, rollup.Deleted()))

	inv := f.reloadInvoice(t, invoice.ID)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, inv.Status)
	assertAmount(t, "0", inv.PaidAmount)
	assertAmount(t, "75", inv.Balance)
}
