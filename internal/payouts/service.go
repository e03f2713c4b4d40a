// Package payouts owns the teacher payout ledger: it creates payout records,
// applies installment payments toward whole-class totals, and drives the
// PENDING -> INSTALLMENT -> PAID state machine. Money movement is delegated to
// the treasury executor and always happens inside the same database
// transaction as the record mutation.
package payouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veltaedu/velta-backend/internal/payments"
	"github.com/veltaedu/velta-backend/pkg/db"
	"github.com/veltaedu/velta-backend/pkg/db/models"
	"github.com/veltaedu/velta-backend/pkg/enums"
	pkgerrors "github.com/veltaedu/velta-backend/pkg/errors"
	"github.com/veltaedu/velta-backend/pkg/logger"
	"github.com/veltaedu/velta-backend/pkg/outbox"
	"github.com/veltaedu/velta-backend/pkg/pagination"
	"github.com/veltaedu/velta-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	DB       txRunner
	Repo     Repository
	Executor payments.Executor
	Outbox   outboxEmitter
	Logger   *logger.Logger
}

// Service is the payout ledger. All mutating operations lock the target row,
// call the payment executor inside the transaction, and emit an outbox event
// alongside the mutation.
type Service struct {
	dbc      txRunner
	repo     Repository
	executor payments.Executor
	outbox   outboxEmitter
	logg     *logger.Logger
}

// NewService wires the ledger service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	if params.Repo == nil {
		return nil, errors.New("repository is required")
	}
	if params.Executor == nil {
		return nil, errors.New("payment executor is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		dbc:      params.DB,
		repo:     params.Repo,
		executor: params.Executor,
		outbox:   params.Outbox,
		logg:     params.Logger,
	}, nil
}

// CreatePayoutParams describes a new payout record. UnitCount is ignored for
// MONTH and CLASS records, which are always priced as a single unit.
type CreatePayoutParams struct {
	TeacherID      uuid.UUID
	ClassID        uuid.UUID
	SessionID      *uuid.UUID
	Month          *int
	Year           *int
	UnitType       enums.PayoutUnitType
	UnitPrice      types.Money
	UnitCount      decimal.Decimal
	BranchID       uuid.UUID
	CenterID       uuid.UUID
	IdempotencyKey *string
}

// CreateClassPayoutParams creates a whole-class contract record, optionally
// paying the first installment in the same logical operation.
type CreateClassPayoutParams struct {
	TeacherID      uuid.UUID
	ClassID        uuid.UUID
	BranchID       uuid.UUID
	CenterID       uuid.UUID
	TotalAmount    types.Money
	InitialPayment *types.Money
	Method         enums.PaymentMethod
	IdempotencyKey *string
}

// Progress is the derived read-only payment view of one record.
type Progress struct {
	PayoutID        uuid.UUID            `json:"payoutId"`
	UnitType        enums.PayoutUnitType `json:"unitType"`
	TotalAmount     types.Money          `json:"totalAmount"`
	TotalPaid       types.Money          `json:"totalPaid"`
	Remaining       types.Money          `json:"remaining"`
	ProgressPercent float64              `json:"progressPercent"`
	LastPayment     types.Money          `json:"lastPayment"`
	Status          enums.PayoutStatus   `json:"status"`
}

// UnitTypeSummary aggregates a teacher's payouts of one unit type.
type UnitTypeSummary struct {
	UnitType        enums.PayoutUnitType `json:"unitType"`
	Count           int                  `json:"count"`
	TotalAmount     types.Money          `json:"totalAmount"`
	TotalPaid       types.Money          `json:"totalPaid"`
	Remaining       types.Money          `json:"remaining"`
	ProgressPercent float64              `json:"progressPercent"`
}

// TeacherSummary is the per-teacher rollup across all payout records.
type TeacherSummary struct {
	TeacherID       uuid.UUID         `json:"teacherId"`
	PayoutCount     int               `json:"payoutCount"`
	TotalAmount     types.Money       `json:"totalAmount"`
	TotalPaid       types.Money       `json:"totalPaid"`
	Remaining       types.Money       `json:"remaining"`
	ProgressPercent float64           `json:"progressPercent"`
	ByUnitType      []UnitTypeSummary `json:"byUnitType"`
}

type payoutEventData struct {
	PayoutID    uuid.UUID            `json:"payoutId"`
	TeacherID   uuid.UUID            `json:"teacherId"`
	ClassID     uuid.UUID            `json:"classId"`
	UnitType    enums.PayoutUnitType `json:"unitType"`
	Status      enums.PayoutStatus   `json:"status"`
	TotalAmount types.Money          `json:"totalAmount"`
	TotalPaid   types.Money          `json:"totalPaid"`
	Amount      *types.Money         `json:"amount,omitempty"`
	PaymentID   *string              `json:"paymentId,omitempty"`
}

// CreatePayout inserts a new payout record. Replaying an idempotency key
// returns the original record unchanged; the unique indexes on idempotency_key
// and the MONTH scope are the backstop against concurrent duplicates.
func (s *Service) CreatePayout(ctx context.Context, params CreatePayoutParams, actor *outbox.ActorRef) (*models.PayoutRecord, error) {
	record, _, err := s.createPayout(ctx, params, actor)
	return record, err
}

// createPayout reports whether the returned record was freshly inserted.
// Replays of an idempotency key, MONTH-scope duplicates, and races lost to the
// unique indexes all return the existing record with created=false.
func (s *Service) createPayout(ctx context.Context, params CreatePayoutParams, actor *outbox.ActorRef) (*models.PayoutRecord, bool, error) {
	if err := s.validateCreate(params); err != nil {
		return nil, false, err
	}

	if params.IdempotencyKey != nil {
		existing, err := s.repo.FindByIdempotencyKey(ctx, *params.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	if params.UnitType == enums.PayoutUnitTypeMonth {
		existing, err := s.repo.FindMonthPayout(ctx, params.TeacherID, params.ClassID, *params.Month, *params.Year)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	record := s.newRecord(params)
	err := s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, record); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutCreated,
			AggregateType: enums.AggregatePayout,
			AggregateID:   record.ID,
			Actor:         actor,
			Data:          eventData(record, nil),
			Version:       1,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			duplicate, findErr := s.findDuplicate(ctx, params)
			return duplicate, false, findErr
		}
		return nil, false, err
	}

	logCtx := s.logg.WithPayoutID(s.logg.WithTeacherID(ctx, record.TeacherID.String()), record.ID.String())
	s.logg.Info(logCtx, "payout record created")
	return record, true, nil
}

// CreateClassPayout creates the whole-class contract record and, when an
// initial payment is supplied, immediately applies it as the first
// installment. The two steps are one logical operation to the caller. An
// idempotency-key replay returns the existing record as-is: the initial
// payment was already applied on the first delivery, so no second transfer
// is executed.
func (s *Service) CreateClassPayout(ctx context.Context, params CreateClassPayoutParams, actor *outbox.ActorRef) (*models.PayoutRecord, error) {
	if !params.TotalAmount.IsPositive() {
		return nil, errInvalidPayoutAmount(params.TotalAmount)
	}

	record, created, err := s.createPayout(ctx, CreatePayoutParams{
		TeacherID:      params.TeacherID,
		ClassID:        params.ClassID,
		UnitType:       enums.PayoutUnitTypeClass,
		UnitPrice:      params.TotalAmount,
		BranchID:       params.BranchID,
		CenterID:       params.CenterID,
		IdempotencyKey: params.IdempotencyKey,
	}, actor)
	if err != nil {
		return nil, err
	}

	if !created || params.InitialPayment == nil || !params.InitialPayment.IsPositive() {
		return record, nil
	}
	return s.PayInstallment(ctx, record.ID, *params.InitialPayment, params.Method, actor)
}

// PayInstallment applies a partial payment toward a CLASS payout. The executor
// call and the total increment share one transaction under a row lock; if the
// transfer fails the record is left untouched.
func (s *Service) PayInstallment(ctx context.Context, payoutID uuid.UUID, amount types.Money, method enums.PaymentMethod, actor *outbox.ActorRef) (*models.PayoutRecord, error) {
	if !amount.IsPositive() {
		return nil, errInvalidPayoutAmount(amount)
	}

	var updated *models.PayoutRecord
	err := s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByIDForUpdate(ctx, payoutID)
		if err != nil {
			return err
		}
		if record == nil {
			return errPayoutNotFound(payoutID)
		}
		if record.Status.IsTerminal() {
			return errInvalidStatusTransition(payoutID, record.Status)
		}
		if !record.UnitType.SupportsInstallments() {
			return errInvalidPayoutType(payoutID, record.UnitType)
		}
		if amount.GreaterThan(record.Remaining()) {
			return errAmountExceedsRemaining(payoutID, amount, record.Remaining())
		}

		result, err := s.executor.Execute(ctx, transferParams(record, amount, method))
		if err != nil {
			return err
		}

		record.TotalPaid = record.TotalPaid.Add(amount)
		record.LastPaymentAmount = amount
		record.PaymentID = &result.PaymentID
		if record.TotalPaid.GreaterThanOrEqual(record.TotalAmount()) {
			record.Status = enums.PayoutStatusPaid
		} else {
			record.Status = enums.PayoutStatusInstallment
		}
		if err := repo.Save(ctx, record); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutInstallmentPaid,
			AggregateType: enums.AggregatePayout,
			AggregateID:   record.ID,
			Actor:         actor,
			Data:          eventData(record, &amount),
			Version:       1,
		}); err != nil {
			return err
		}
		if record.Status == enums.PayoutStatusPaid {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPayoutPaid,
				AggregateType: enums.AggregatePayout,
				AggregateID:   record.ID,
				Actor:         actor,
				Data:          eventData(record, nil),
				Version:       1,
			}); err != nil {
				return err
			}
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"payout_id": payoutID.String(),
		"amount":    amount.String(),
		"status":    updated.Status.String(),
	})
	s.logg.Info(logCtx, "installment applied")
	return updated, nil
}

// ApproveAndPay settles the full outstanding balance and moves the record to
// PAID. Valid from PENDING or INSTALLMENT; PAID records reject the attempt.
func (s *Service) ApproveAndPay(ctx context.Context, payoutID uuid.UUID, method enums.PaymentMethod, actor *outbox.ActorRef) (*models.PayoutRecord, error) {
	var updated *models.PayoutRecord
	err := s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByIDForUpdate(ctx, payoutID)
		if err != nil {
			return err
		}
		if record == nil {
			return errPayoutNotFound(payoutID)
		}
		if record.Status.IsTerminal() {
			return errInvalidStatusTransition(payoutID, record.Status)
		}

		outstanding := record.Remaining()
		if outstanding.IsPositive() {
			result, err := s.executor.Execute(ctx, transferParams(record, outstanding, method))
			if err != nil {
				return err
			}
			record.PaymentID = &result.PaymentID
			record.LastPaymentAmount = outstanding
		}
		record.TotalPaid = record.TotalAmount()
		record.Status = enums.PayoutStatusPaid
		if err := repo.Save(ctx, record); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutPaid,
			AggregateType: enums.AggregatePayout,
			AggregateID:   record.ID,
			Actor:         actor,
			Data:          eventData(record, nil),
			Version:       1,
		}); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithPayoutID(ctx, payoutID.String()), "payout approved and paid")
	return updated, nil
}

// GetPayout fetches one record.
func (s *Service) GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.PayoutRecord, error) {
	record, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errPayoutNotFound(payoutID)
	}
	return record, nil
}

// ListPayouts returns a filtered page of records with the next cursor.
func (s *Service) ListPayouts(ctx context.Context, query ListQuery) ([]models.PayoutRecord, string, error) {
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return rows, nextCursor, nil
}

// GetProgress computes the derived payment view for one record. A zero total
// yields a zero percentage, never a division error.
func (s *Service) GetProgress(ctx context.Context, payoutID uuid.UUID) (Progress, error) {
	record, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		return Progress{}, err
	}
	if record == nil {
		return Progress{}, errPayoutNotFound(payoutID)
	}
	return progressOf(record), nil
}

// GetTeacherSummary aggregates progress across all of a teacher's payouts,
// grouped by unit type.
func (s *Service) GetTeacherSummary(ctx context.Context, teacherID uuid.UUID) (TeacherSummary, error) {
	records, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return TeacherSummary{}, err
	}

	summary := TeacherSummary{
		TeacherID:   teacherID,
		PayoutCount: len(records),
		TotalAmount: types.Zero(),
		TotalPaid:   types.Zero(),
		Remaining:   types.Zero(),
	}
	groups := make(map[enums.PayoutUnitType]*UnitTypeSummary)
	for i := range records {
		record := &records[i]
		total := record.TotalAmount()
		summary.TotalAmount = summary.TotalAmount.Add(total)
		summary.TotalPaid = summary.TotalPaid.Add(record.TotalPaid)
		summary.Remaining = summary.Remaining.Add(record.Remaining())

		group, ok := groups[record.UnitType]
		if !ok {
			group = &UnitTypeSummary{
				UnitType:    record.UnitType,
				TotalAmount: types.Zero(),
				TotalPaid:   types.Zero(),
				Remaining:   types.Zero(),
			}
			groups[record.UnitType] = group
		}
		group.Count++
		group.TotalAmount = group.TotalAmount.Add(total)
		group.TotalPaid = group.TotalPaid.Add(record.TotalPaid)
		group.Remaining = group.Remaining.Add(record.Remaining())
	}

	summary.ProgressPercent = percentOf(summary.TotalPaid, summary.TotalAmount)
	for _, unitType := range []enums.PayoutUnitType{
		enums.PayoutUnitTypeSession,
		enums.PayoutUnitTypeHour,
		enums.PayoutUnitTypeStudent,
		enums.PayoutUnitTypeMonth,
		enums.PayoutUnitTypeClass,
	} {
		if group, ok := groups[unitType]; ok {
			group.ProgressPercent = percentOf(group.TotalPaid, group.TotalAmount)
			summary.ByUnitType = append(summary.ByUnitType, *group)
		}
	}
	return summary, nil
}

func (s *Service) validateCreate(params CreatePayoutParams) error {
	if !params.UnitType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid unit type %q", params.UnitType))
	}
	if params.UnitPrice.IsNegative() {
		return errInvalidPayoutAmount(params.UnitPrice)
	}
	switch params.UnitType {
	case enums.PayoutUnitTypeMonth:
		if params.Month == nil || params.Year == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "month and year are required for month payouts")
		}
		if *params.Month < 1 || *params.Month > 12 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid month %d", *params.Month))
		}
	case enums.PayoutUnitTypeClass:
	default:
		if !params.UnitCount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unit count must be positive").
				WithDetails(map[string]any{"unit_count": params.UnitCount.String()})
		}
	}
	return nil
}

func (s *Service) newRecord(params CreatePayoutParams) *models.PayoutRecord {
	unitCount := params.UnitCount
	status := enums.PayoutStatusPending
	if params.UnitType == enums.PayoutUnitTypeMonth || params.UnitType == enums.PayoutUnitTypeClass {
		unitCount = decimal.NewFromInt(1)
	}
	if params.UnitType == enums.PayoutUnitTypeClass {
		status = enums.PayoutStatusInstallment
	}
	return &models.PayoutRecord{
		ID:                uuid.New(),
		IdempotencyKey:    params.IdempotencyKey,
		TeacherID:         params.TeacherID,
		ClassID:           params.ClassID,
		SessionID:         params.SessionID,
		Month:             params.Month,
		Year:              params.Year,
		UnitType:          params.UnitType,
		UnitPrice:         params.UnitPrice,
		UnitCount:         unitCount,
		TotalPaid:         types.Zero(),
		LastPaymentAmount: types.Zero(),
		Status:            status,
		BranchID:          params.BranchID,
		CenterID:          params.CenterID,
	}
}

// findDuplicate resolves a unique violation raised by a concurrent create to
// the record that won the race.
func (s *Service) findDuplicate(ctx context.Context, params CreatePayoutParams) (*models.PayoutRecord, error) {
	if params.IdempotencyKey != nil {
		existing, err := s.repo.FindByIdempotencyKey(ctx, *params.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	if params.UnitType == enums.PayoutUnitTypeMonth && params.Month != nil && params.Year != nil {
		existing, err := s.repo.FindMonthPayout(ctx, params.TeacherID, params.ClassID, *params.Month, *params.Year)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "payout already exists")
}

func transferParams(record *models.PayoutRecord, amount types.Money, method enums.PaymentMethod) payments.ExecuteParams {
	return payments.ExecuteParams{
		Amount:       amount,
		SenderID:     record.BranchID,
		SenderType:   enums.PartyTypeBranchCashbox,
		ReceiverID:   record.TeacherID,
		ReceiverType: enums.PartyTypeTeacherWallet,
		Reason:       fmt.Sprintf("teacher payout %s", record.ID),
		Method:       method,
		ReferenceID:  record.ID,
	}
}

func eventData(record *models.PayoutRecord, amount *types.Money) payoutEventData {
	return payoutEventData{
		PayoutID:    record.ID,
		TeacherID:   record.TeacherID,
		ClassID:     record.ClassID,
		UnitType:    record.UnitType,
		Status:      record.Status,
		TotalAmount: record.TotalAmount(),
		TotalPaid:   record.TotalPaid,
		Amount:      amount,
		PaymentID:   record.PaymentID,
	}
}

func progressOf(record *models.PayoutRecord) Progress {
	total := record.TotalAmount()
	return Progress{
		PayoutID:        record.ID,
		UnitType:        record.UnitType,
		TotalAmount:     total,
		TotalPaid:       record.TotalPaid,
		Remaining:       record.Remaining(),
		ProgressPercent: percentOf(record.TotalPaid, total),
		LastPayment:     record.LastPaymentAmount,
		Status:          record.Status,
	}
}

func percentOf(paid, total types.Money) float64 {
	if total.IsZero() {
		return 0
	}
	percent, _ := paid.Decimal().
		Div(total.Decimal()).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return percent
}
