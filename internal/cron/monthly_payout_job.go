package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/veltaedu/velta-backend/internal/payouts"
	"github.com/veltaedu/velta-backend/pkg/db/models"
	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/logger"
	"github.com/veltaedu/velta-backend/pkg/outbox"
	"github.com/veltaedu/velta-backend/pkg/proration"
)

type classLister interface {
	ListActiveByStrategy(ctx context.Context, strategy enums.ClassPaymentStrategy) ([]models.Class, error)
}

type monthPayoutLookup interface {
	FindMonthPayout(ctx context.Context, teacherID, classID uuid.UUID, month, year int) (*models.PayoutRecord, error)
}

type payoutLedger interface {
	CreatePayout(ctx context.Context, params payouts.CreatePayoutParams, actor *outbox.ActorRef) (*models.PayoutRecord, error)
}

// MonthlyPayoutJobParams configures the monthly settlement run.
type MonthlyPayoutJobParams struct {
	Logger  *logger.Logger
	Classes classLister
	Lookup  monthPayoutLookup
	Ledger  payoutLedger
	Now     func() time.Time
}

// NewMonthlyPayoutJob constructs the job that settles the previous calendar
// month for every active per-month class.
func NewMonthlyPayoutJob(params MonthlyPayoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Classes == nil {
		return nil, fmt.Errorf("class lister required")
	}
	if params.Lookup == nil {
		return nil, fmt.Errorf("payout lookup required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("payout ledger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &monthlyPayoutJob{
		logg:    params.Logger,
		classes: params.Classes,
		lookup:  params.Lookup,
		ledger:  params.Ledger,
		now:     now,
	}, nil
}

type monthlyPayoutJob struct {
	logg    *logger.Logger
	classes classLister
	lookup  monthPayoutLookup
	ledger  payoutLedger
	now     func() time.Time
}

func (j *monthlyPayoutJob) Name() string { return "monthly-payouts" }

// Run creates one prorated MONTH payout per active per-month class for the
// previous month. Each class is handled independently; a failing class is
// collected into the combined error and must not stop the batch.
func (j *monthlyPayoutJob) Run(ctx context.Context) error {
	month, year := proration.PreviousMonth(j.now().UTC())
	classes, err := j.classes.ListActiveByStrategy(ctx, enums.ClassPaymentStrategyMonth)
	if err != nil {
		return fmt.Errorf("list month classes: %w", err)
	}

	created, skipped := 0, 0
	var errs []error
	for i := range classes {
		class := &classes[i]
		ok, err := j.settleClass(ctx, class, month, year)
		if err != nil {
			errs = append(errs, fmt.Errorf("class %s: %w", class.ID, err))
			continue
		}
		if ok {
			created++
		} else {
			skipped++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"month":   month,
		"year":    year,
		"classes": len(classes),
		"created": created,
		"skipped": skipped,
		"failed":  len(errs),
	})
	j.logg.Info(logCtx, "monthly payout run complete")
	return multierr.Combine(errs...)
}

func (j *monthlyPayoutJob) settleClass(ctx context.Context, class *models.Class, month, year int) (bool, error) {
	if !proration.WasActiveInMonth(class.StartDate, class.EndDate, month, year) {
		return false, nil
	}

	existing, err := j.lookup.FindMonthPayout(ctx, class.TeacherID, class.ID, month, year)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	result, err := proration.Prorate(class.UnitPrice, class.StartDate, class.EndDate, month, year)
	if err != nil {
		return false, err
	}
	if result.DaysActive <= 0 {
		return false, nil
	}

	key := fmt.Sprintf("month-payout:%s:%s:%d-%02d", class.TeacherID, class.ID, year, month)
	_, err = j.ledger.CreatePayout(ctx, payouts.CreatePayoutParams{
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
		return false, err
	}
	return true, nil
}
