package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/types"
)

// PayoutRecord tracks one unit of teacher compensation: how much is owed for a
// scope of work and how much has actually been paid out. Paid records are
// read-only history.
type PayoutRecord struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IdempotencyKey *string   `gorm:"column:idempotency_key;uniqueIndex:ux_payout_records_idempotency_key"`

	TeacherID uuid.UUID  `gorm:"column:teacher_id;type:uuid;not null;index"`
	ClassID   uuid.UUID  `gorm:"column:class_id;type:uuid;not null;index"`
	SessionID *uuid.UUID `gorm:"column:session_id;type:uuid"`
	Month     *int       `gorm:"column:month"`
	Year      *int       `gorm:"column:year"`

	UnitType  enums.PayoutUnitType `gorm:"column:unit_type;type:payout_unit_type;not null"`
	UnitPrice types.Money          `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitCount decimal.Decimal      `gorm:"column:unit_count;type:numeric(10,2);not null;default:1"`

	TotalPaid         types.Money `gorm:"column:total_paid;type:numeric(12,2);not null;default:0"`
	LastPaymentAmount types.Money `gorm:"column:last_payment_amount;type:numeric(12,2);not null;default:0"`

	Status enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'pending'"`

	BranchID uuid.UUID `gorm:"column:branch_id;type:uuid;not null"`
	CenterID uuid.UUID `gorm:"column:center_id;type:uuid;not null"`

	PaymentID *string `gorm:"column:payment_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (PayoutRecord) TableName() string { return "payout_records" }

// TotalAmount is the full amount owed for the record's scope. Whole-class
// contracts carry the total directly in unit_price; every other unit type is
// priced per unit.
func (p *PayoutRecord) TotalAmount() types.Money {
	if p.UnitType == enums.PayoutUnitTypeClass {
		return p.UnitPrice
	}
	return p.UnitPrice.MulRound(p.UnitCount)
}

// Remaining is the unpaid balance.
func (p *PayoutRecord) Remaining() types.Money {
	return p.TotalAmount().Sub(p.TotalPaid)
}
