package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	"github.com/smallbiznis/repairdesk/internal/invoice/domain"
	transactiondomain "github.com/smallbiznis/repairdesk/internal/transaction/domain"
	dbpkg "github.com/smallbiznis/repairdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	err := db.WithContext(ctx).Create(invoice).Error
	if dbpkg.IsDuplicateKeyErr(err) {
		return fmt.Errorf("%w: ticket %s", domain.ErrInvoiceExists, invoice.TicketID)
	}
	return err
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	db = db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", id).Delete(&adjustmentdomain.Adjustment{}).Error; err != nil {
		return err
	}
	if err := db.Where("invoice_id = ?", id).Delete(&transactiondomain.Transaction{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&domain.Invoice{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByTicket(ctx context.Context, db *gorm.DB, ticketID snowflake.ID) (*domain.Invoice, error) {
	return r.findOne(ctx, db, "ticket_id = ?", ticketID)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Where(query, args...).First(&invoice).Error
	if dbpkg.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB, asOf time.Time, limit int) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	stmt := db.WithContext(ctx).
		Where("status IN ?", []domain.InvoiceStatus{domain.InvoiceStatusIssued, domain.InvoiceStatusSent}).
		Where("due_date IS NOT NULL AND due_date < ?", asOf.UTC()).
		Where("balance > 0").
		Order("due_date asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Model(&domain.Invoice{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (r *repo) SaveAggregates(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"task_total":          invoice.TaskTotal,
			"order_total":         invoice.OrderTotal,
			"subtotal":            invoice.Subtotal,
			"discount_amount":     invoice.DiscountAmount,
			"fee_amount":          invoice.FeeAmount,
			"compensation_amount": invoice.CompensationAmount,
			"bonus_amount":        invoice.BonusAmount,
			"net_amount":          invoice.NetAmount,
			"total":               invoice.Total,
			"paid_amount":         invoice.PaidAmount,
			"refunded_amount":     invoice.RefundedAmount,
			"balance":             invoice.Balance,
			"status":              invoice.Status,
			"updated_at":          invoice.UpdatedAt,
		}).Error
}

func (r *repo) SaveWorkflow(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"status":     invoice.Status,
			"due_date":   invoice.DueDate,
			"issued_at":  invoice.IssuedAt,
			"sent_at":    invoice.SentAt,
			"updated_at": invoice.UpdatedAt,
		}).Error
}
