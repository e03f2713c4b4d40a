package payouts

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/pkg/enums"
	pkgerrors "github.com/veltaedu/velta-backend/pkg/errors"
	"github.com/veltaedu/velta-backend/pkg/types"
)

// Domain errors carry enough context (record id, attempted amount, current
// totals) for the caller to act. All of them are recoverable; none is retried
// automatically.

func errPayoutNotFound(id uuid.UUID) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found").
		WithDetails(map[string]any{"payout_id": id.String()})
}

func errInvalidPayoutType(id uuid.UUID, unitType enums.PayoutUnitType) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("installments are not supported for %s payouts", unitType)).
		WithDetails(map[string]any{"payout_id": id.String(), "unit_type": unitType.String()})
}

func errInvalidPayoutAmount(amount types.Money) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeAmountInvalid, "payment amount must be positive").
		WithDetails(map[string]any{"amount": amount.String()})
}

func errAmountExceedsRemaining(id uuid.UUID, amount, remaining types.Money) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeAmountInvalid, "payment amount exceeds remaining balance").
		WithDetails(map[string]any{
			"payout_id": id.String(),
			"amount":    amount.String(),
			"remaining": remaining.String(),
		})
}

func errInvalidStatusTransition(id uuid.UUID, from enums.PayoutStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("payout in status %s cannot be paid", from)).
		WithDetails(map[string]any{"payout_id": id.String(), "status": from.String()})
}
