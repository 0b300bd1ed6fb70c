package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	auditdomain "github.com/smallbiznis/repairdesk/internal/audit/domain"
	customerdomain "github.com/smallbiznis/repairdesk/internal/customer/domain"
	devicedomain "github.com/smallbiznis/repairdesk/internal/device/domain"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/repairdesk/internal/order/domain"
	taskdomain "github.com/smallbiznis/repairdesk/internal/task/domain"
	ticketdomain "github.com/smallbiznis/repairdesk/internal/ticket/domain"
	transactiondomain "github.com/smallbiznis/repairdesk/internal/transaction/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		&customerdomain.Customer{},
		&devicedomain.Device{},
		&ticketdomain.Ticket{},
		&taskdomain.Task{},
		&orderdomain.Order{},
		&invoicedomain.Invoice{},
		&adjustmentdomain.Adjustment{},
		&transactiondomain.Transaction{},
		&auditdomain.AuditLog{},
	}
}

// Run brings the schema up to date. Postgres uses the versioned SQL
// migrations; other dialects are created from the models.
func Run(db *gorm.DB, dbType string) error {
	if dbType != "postgres" {
		return AutoMigrate(db)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
