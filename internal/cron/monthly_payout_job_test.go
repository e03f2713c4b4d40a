package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/internal/payouts"
	"github.com/veltaedu/velta-backend/pkg/db/models"
	"github.com/veltaedu/velta-backend/pkg/enums"
	pkgerrors "github.com/veltaedu/velta-backend/pkg/errors"
	"github.com/veltaedu/velta-backend/pkg/logger"
	"github.com/veltaedu/velta-backend/pkg/outbox"
	"github.com/veltaedu/velta-backend/pkg/types"
)

type fakeClassLister struct {
	classes []models.Class
	err     error
}

func (f *fakeClassLister) ListActiveByStrategy(_ context.Context, _ enums.ClassPaymentStrategy) ([]models.Class, error) {
	return f.classes, f.err
}

type fakeMonthLookup struct {
	existing map[uuid.UUID]*models.PayoutRecord
}

func (f *fakeMonthLookup) FindMonthPayout(_ context.Context, _, classID uuid.UUID, _, _ int) (*models.PayoutRecord, error) {
	return f.existing[classID], nil
}

type fakePayoutLedger struct {
	created []payouts.CreatePayoutParams
	failFor map[uuid.UUID]error
}

func (f *fakePayoutLedger) CreatePayout(_ context.Context, params payouts.CreatePayoutParams, _ *outbox.ActorRef) (*models.PayoutRecord, error) {
	if err, ok := f.failFor[params.ClassID]; ok {
		return nil, err
	}
	f.created = append(f.created, params)
	return &models.PayoutRecord{ID: uuid.New()}, nil
}

func monthClass(start time.Time, end *time.Time) models.Class {
	return models.Class{
		ID:              uuid.New(),
		TeacherID:       uuid.New(),
		BranchID:        uuid.New(),
		CenterID:        uuid.New(),
		Status:          enums.ClassStatusActive,
		PaymentStrategy: enums.ClassPaymentStrategyMonth,
		UnitPrice:       types.MoneyFromInt(3000),
		StartDate:       start,
		EndDate:         end,
	}
}

func newMonthlyJob(t *testing.T, lister *fakeClassLister, lookup *fakeMonthLookup, ledger *fakePayoutLedger, now time.Time) Job {
	t.Helper()
	job, err := NewMonthlyPayoutJob(MonthlyPayoutJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Classes: lister,
		Lookup:  lookup,
		Ledger:  ledger,
		Now:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job
}

func TestMonthlyPayoutJobProratesPreviousMonth(t *testing.T) {
	now := time.Date(2024, 2, 15, 3, 0, 0, 0, time.UTC)
	class := monthClass(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), nil)
	ledger := &fakePayoutLedger{}
	job := newMonthlyJob(t,
		&fakeClassLister{classes: []models.Class{class}},
		&fakeMonthLookup{existing: map[uuid.UUID]*models.PayoutRecord{}},
		ledger, now)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ledger.created) != 1 {
		t.Fatalf("expected one payout, got %d", len(ledger.created))
	}
	created := ledger.created[0]
	if *created.Month != 1 || *created.Year != 2024 {
		t.Fatalf("expected January 2024, got %d/%d", *created.Month, *created.Year)
	}
	// started Jan 10, open-ended: 22 of 31 days of 3000.00
	expected, _ := types.MoneyFromString("2129.03")
	if !created.UnitPrice.Equal(expected) {
		t.Fatalf("expected 2129.03, got %s", created.UnitPrice)
	}
	if created.IdempotencyKey == nil {
		t.Fatalf("expected idempotency key")
	}
}

func TestMonthlyPayoutJobSkipsExistingRecord(t *testing.T) {
	now := time.Date(2024, 2, 15, 3, 0, 0, 0, time.UTC)
	class := monthClass(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	ledger := &fakePayoutLedger{}
	job := newMonthlyJob(t,
		&fakeClassLister{classes: []models.Class{class}},
		&fakeMonthLookup{existing: map[uuid.UUID]*models.PayoutRecord{
			class.ID: {ID: uuid.New()},
		}},
		ledger, now)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ledger.created) != 0 {
		t.Fatalf("existing month record must be skipped")
	}
}

func TestMonthlyPayoutJobSkipsInactiveMonth(t *testing.T) {
	now := time.Date(2024, 2, 15, 3, 0, 0, 0, time.UTC)
	// class starts after the settlement month
	class := monthClass(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), nil)
	ledger := &fakePayoutLedger{}
	job := newMonthlyJob(t,
		&fakeClassLister{classes: []models.Class{class}},
		&fakeMonthLookup{existing: map[uuid.UUID]*models.PayoutRecord{}},
		ledger, now)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ledger.created) != 0 {
		t.Fatalf("class inactive in the settlement month must be skipped")
	}
}

func TestMonthlyPayoutJobIsolatesClassFailures(t *testing.T) {
	now := time.Date(2024, 2, 15, 3, 0, 0, 0, time.UTC)
	failing := monthClass(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	healthy := monthClass(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	ledger := &fakePayoutLedger{failFor: map[uuid.UUID]error{
		failing.ID: pkgerrors.New(pkgerrors.CodeDependency, "db down"),
	}}
	job := newMonthlyJob(t,
		&fakeClassLister{classes: []models.Class{failing, healthy}},
		&fakeMonthLookup{existing: map[uuid.UUID]*models.PayoutRecord{}},
		ledger, now)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected combined error for the failing class")
	}
	if len(ledger.created) != 1 || ledger.created[0].ClassID != healthy.ID {
		t.Fatalf("healthy class must still be settled")
	}
}
