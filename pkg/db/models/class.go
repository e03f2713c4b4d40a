package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/types"
)

// Class is the payout subsystem's read view of a class contract: who teaches it,
// where its money is routed, and how the teacher is compensated. The class
// lifecycle itself is owned elsewhere.
type Class struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	TeacherID uuid.UUID `gorm:"column:teacher_id;type:uuid;not null;index"`
	BranchID  uuid.UUID `gorm:"column:branch_id;type:uuid;not null"`
	CenterID  uuid.UUID `gorm:"column:center_id;type:uuid;not null"`

	Status          enums.ClassStatus          `gorm:"column:status;type:class_status;not null;default:'draft'"`
	PaymentStrategy enums.ClassPaymentStrategy `gorm:"column:payment_strategy;type:class_payment_strategy;not null"`

	// UnitPrice is the per-unit rate, the monthly fee, or the whole-class total,
	// depending on the strategy.
	UnitPrice types.Money `gorm:"column:unit_price;type:numeric(12,2);not null"`

	StartDate time.Time  `gorm:"column:start_date;not null"`
	EndDate   *time.Time `gorm:"column:end_date"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (Class) TableName() string { return "classes" }
