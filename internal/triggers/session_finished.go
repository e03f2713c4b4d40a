package triggers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veltaedu/velta-backend/internal/payouts"
	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/outbox"
)

// SessionFinishedEvent is what the session subsystem reports when a lesson
// wraps up. Attendance carries one status per enrolled student.
type SessionFinishedEvent struct {
	SessionID  uuid.UUID
	ClassID    uuid.UUID
	TeacherID  uuid.UUID
	BranchID   uuid.UUID
	CenterID   uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
	Attendance []enums.AttendanceStatus
}

// HandleSessionFinished creates the per-unit payout a finished session earned.
// Month and whole-class strategies are settled elsewhere and are skipped here.
func (a *Adapter) HandleSessionFinished(ctx context.Context, event SessionFinishedEvent) {
	logCtx := a.logg.WithFields(ctx, map[string]any{
		"session_id": event.SessionID.String(),
		"class_id":   event.ClassID.String(),
	})

	class, err := a.classes.FindByID(ctx, event.ClassID)
	if err != nil {
		a.logg.Error(logCtx, "session payout: class lookup failed", err)
		return
	}
	if class == nil {
		a.logg.Warn(logCtx, "session payout: class not found")
		return
	}

	unitType, ok := class.PaymentStrategy.UnitType()
	if !ok || (unitType != enums.PayoutUnitTypeSession &&
		unitType != enums.PayoutUnitTypeHour &&
		unitType != enums.PayoutUnitTypeStudent) {
		return
	}

	unitCount := sessionUnitCount(unitType, event)
	if !unitCount.IsPositive() {
		a.logg.Info(logCtx, "session payout: no billable units, skipping")
		return
	}

	key := fmt.Sprintf("session-payout:%s:%s", event.SessionID, unitType)
	sessionID := event.SessionID
	_, err = a.ledger.CreatePayout(ctx, payouts.CreatePayoutParams{
		TeacherID:      event.TeacherID,
		ClassID:        event.ClassID,
		SessionID:      &sessionID,
		UnitType:       unitType,
		UnitPrice:      class.UnitPrice,
		UnitCount:      unitCount,
		BranchID:       event.BranchID,
		CenterID:       event.CenterID,
		IdempotencyKey: &key,
	}, outbox.SystemActor())
	if err != nil {
		a.logg.Error(logCtx, "session payout creation failed", err)
	}
}

func sessionUnitCount(unitType enums.PayoutUnitType, event SessionFinishedEvent) decimal.Decimal {
	switch unitType {
	case enums.PayoutUnitTypeSession:
		return decimal.NewFromInt(1)
	case enums.PayoutUnitTypeHour:
		hours := event.EndTime.Sub(event.StartTime).Hours()
		return decimal.NewFromFloat(hours).Round(2)
	case enums.PayoutUnitTypeStudent:
		count := 0
		for _, status := range event.Attendance {
			if status.Counts() {
				count++
			}
		}
		return decimal.NewFromInt(int64(count))
	}
	return decimal.Zero
}
