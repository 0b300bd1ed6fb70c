package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/repairdesk/internal/progress"
)

type TaskStatus string

const (
	TaskStatusNew       TaskStatus = "new"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

var taskStatusTable = progress.Table[TaskStatus]{
	TaskStatusNew:       progress.Pending,
	TaskStatusCompleted: progress.Complete,
	TaskStatusCancelled: progress.Void,
}

func (s TaskStatus) Classify() progress.Classification { return taskStatusTable.Of(s) }

func (s TaskStatus) Valid() bool {
	_, ok := taskStatusTable[s]
	return ok
}

// Next moves a new task to completed. Completed and cancelled are terminal.
func (s TaskStatus) Next() TaskStatus {
	if s == TaskStatusNew {
		return TaskStatusCompleted
	}
	return s
}

type TaskType string

const (
	TaskTypeDiagnosis    TaskType = "diagnosis"
	TaskTypeRepair       TaskType = "repair"
	TaskTypeReplacement  TaskType = "replacement"
	TaskTypeCleaning     TaskType = "cleaning"
	TaskTypeDataRecovery TaskType = "data_recovery"
	TaskTypeSoftware     TaskType = "software"
	TaskTypeOther        TaskType = "other"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeDiagnosis, TaskTypeRepair, TaskTypeReplacement, TaskTypeCleaning,
		TaskTypeDataRecovery, TaskTypeSoftware, TaskTypeOther:
		return true
	}
	return false
}

// Task is a unit of labour performed on a ticket.
type Task struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	TicketID    snowflake.ID    `gorm:"not null;index" json:"ticket_id"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Type        TaskType        `gorm:"type:text;not null;default:'other'" json:"type"`
	Status      TaskStatus      `gorm:"type:text;not null;default:'new'" json:"status"`
	Cost        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
	IsBillable  bool            `gorm:"not null" json:"is_billable"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

// Normalize clears the billable flag on cancelled tasks.
func (t *Task) Normalize() {
	if t.Status == TaskStatusCancelled {
		t.IsBillable = false
	}
}

// BillableCost is the amount the task contributes to the invoice.
func (t Task) BillableCost() decimal.Decimal {
	if !t.IsBillable {
		return decimal.Zero
	}
	return t.Cost
}
