package triggers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/internal/payouts"
	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/outbox"
	"github.com/veltaedu/velta-backend/pkg/proration"
	"github.com/veltaedu/velta-backend/pkg/types"
)

// ClassCreatedEvent announces a newly registered class contract. An optional
// initial payment seeds the whole-class record with its first installment.
type ClassCreatedEvent struct {
	ClassID        uuid.UUID
	InitialPayment *types.Money
	Method         enums.PaymentMethod
}

// ClassStatusChangedEvent reports a class lifecycle transition.
type ClassStatusChangedEvent struct {
	ClassID   uuid.UUID
	NewStatus enums.ClassStatus
}

// HandleClassCreated opens the whole-class payout contract for classes paid a
// flat total. Other strategies earn per session or per month and create
// nothing here.
func (a *Adapter) HandleClassCreated(ctx context.Context, event ClassCreatedEvent) {
	logCtx := a.logg.WithClassID(ctx, event.ClassID.String())

	class, err := a.classes.FindByID(ctx, event.ClassID)
	if err != nil {
		a.logg.Error(logCtx, "class payout: class lookup failed", err)
		return
	}
	if class == nil {
		a.logg.Warn(logCtx, "class payout: class not found")
		return
	}
	if class.PaymentStrategy != enums.ClassPaymentStrategyClass {
		return
	}

	key := fmt.Sprintf("class-payout:%s", class.ID)
	_, err = a.ledger.CreateClassPayout(ctx, payouts.CreateClassPayoutParams{
		TeacherID:      class.TeacherID,
		ClassID:        class.ID,
		BranchID:       class.BranchID,
		CenterID:       class.CenterID,
		TotalAmount:    class.UnitPrice,
		InitialPayment: event.InitialPayment,
		Method:         event.Method,
		IdempotencyKey: &key,
	}, outbox.SystemActor())
	if err != nil {
		a.logg.Error(logCtx, "class payout creation failed", err)
	}
}

// HandleClassStatusChanged settles the final prorated month when a per-month
// class finishes mid-month. The monthly batch covers completed months; this
// covers the tail.
func (a *Adapter) HandleClassStatusChanged(ctx context.Context, event ClassStatusChangedEvent) {
	if !event.NewStatus.IsFinished() {
		return
	}
	logCtx := a.logg.WithClassID(ctx, event.ClassID.String())

	class, err := a.classes.FindByID(ctx, event.ClassID)
	if err != nil {
		a.logg.Error(logCtx, "final month payout: class lookup failed", err)
		return
	}
	if class == nil {
		a.logg.Warn(logCtx, "final month payout: class not found")
		return
	}
	if class.PaymentStrategy != enums.ClassPaymentStrategyMonth {
		return
	}

	now := a.now()
	finish := now
	if class.EndDate != nil && class.EndDate.Before(now) {
		finish = *class.EndDate
	}
	month, year := int(now.Month()), now.Year()

	result, err := proration.Prorate(class.UnitPrice, class.StartDate, &finish, month, year)
	if err != nil {
		a.logg.Error(logCtx, "final month payout: proration failed", err)
		return
	}
	if result.DaysActive <= 0 {
		return
	}

	key := fmt.Sprintf("month-payout:%s:%s:%d-%02d", class.TeacherID, class.ID, year, month)
	_, err = a.ledger.CreatePayout(ctx, payouts.CreatePayoutParams{
		TeacherID:      class.TeacherID,
		ClassID:        class.ID,
		Month:          &month,
		Year:           &year,
		UnitType:       enums.PayoutUnitTypeMonth,
		UnitPrice:      result.ProratedAmount,
		BranchID:       class.BranchID,
		CenterID:       class.CenterID,
		IdempotencyKey: &key,
	}, outbox.SystemActor())
	if err != nil {
		a.logg.Error(logCtx, "final month payout creation failed", err)
	}
}
