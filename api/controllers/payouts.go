package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veltaedu/velta-backend/api/responses"
	"github.com/veltaedu/velta-backend/api/validators"
	"github.com/veltaedu/velta-backend/internal/payouts"
	"github.com/veltaedu/velta-backend/pkg/db/models"
	"github.com/veltaedu/velta-backend/pkg/enums"
	pkgerrors "github.com/veltaedu/velta-backend/pkg/errors"
	"github.com/veltaedu/velta-backend/pkg/logger"
	"github.com/veltaedu/velta-backend/pkg/outbox"
	"github.com/veltaedu/velta-backend/pkg/pagination"
	"github.com/veltaedu/velta-backend/pkg/types"
)

// PayoutService is the ledger surface the controllers depend on.
type PayoutService interface {
	CreatePayout(ctx context.Context, params payouts.CreatePayoutParams, actor *outbox.ActorRef) (*models.PayoutRecord, error)
	PayInstallment(ctx context.Context, payoutID uuid.UUID, amount types.Money, method enums.PaymentMethod, actor *outbox.ActorRef) (*models.PayoutRecord, error)
	ApproveAndPay(ctx context.Context, payoutID uuid.UUID, method enums.PaymentMethod, actor *outbox.ActorRef) (*models.PayoutRecord, error)
	GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.PayoutRecord, error)
	ListPayouts(ctx context.Context, query payouts.ListQuery) ([]models.PayoutRecord, string, error)
	GetProgress(ctx context.Context, payoutID uuid.UUID) (payouts.Progress, error)
	GetTeacherSummary(ctx context.Context, teacherID uuid.UUID) (payouts.TeacherSummary, error)
}

type payoutResponse struct {
	ID                uuid.UUID            `json:"id"`
	TeacherID         uuid.UUID            `json:"teacher_id"`
	ClassID           uuid.UUID            `json:"class_id"`
	SessionID         *uuid.UUID           `json:"session_id,omitempty"`
	Month             *int                 `json:"month,omitempty"`
	Year              *int                 `json:"year,omitempty"`
	UnitType          enums.PayoutUnitType `json:"unit_type"`
	UnitPrice         types.Money          `json:"unit_price"`
	UnitCount         string               `json:"unit_count"`
	TotalAmount       types.Money          `json:"total_amount"`
	TotalPaid         types.Money          `json:"total_paid"`
	LastPaymentAmount types.Money          `json:"last_payment_amount"`
	Remaining         types.Money          `json:"remaining"`
	Status            enums.PayoutStatus   `json:"status"`
	BranchID          uuid.UUID            `json:"branch_id"`
	CenterID          uuid.UUID            `json:"center_id"`
	PaymentID         *string              `json:"payment_id,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

func payoutResponseFromModel(m *models.PayoutRecord) payoutResponse {
	return payoutResponse{
		ID:                m.ID,
		TeacherID:         m.TeacherID,
		ClassID:           m.ClassID,
		SessionID:         m.SessionID,
		Month:             m.Month,
		Year:              m.Year,
		UnitType:          m.UnitType,
		UnitPrice:         m.UnitPrice,
		UnitCount:         m.UnitCount.String(),
		TotalAmount:       m.TotalAmount(),
		TotalPaid:         m.TotalPaid,
		LastPaymentAmount: m.LastPaymentAmount,
		Remaining:         m.Remaining(),
		Status:            m.Status,
		BranchID:          m.BranchID,
		CenterID:          m.CenterID,
		PaymentID:         m.PaymentID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

type payoutListResponse struct {
	Payouts    []payoutResponse `json:"payouts"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// PayoutList handles the filtered, cursor-paginated payout listing.
func PayoutList(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := payouts.ListQuery{}

		if raw := strings.TrimSpace(r.URL.Query().Get("teacher_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid teacher_id"))
				return
			}
			query.TeacherID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("class_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid class_id"))
				return
			}
			query.ClassID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePayoutStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			query.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("unit_type")); raw != "" {
			unitType, err := enums.ParsePayoutUnitType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit_type"))
				return
			}
			query.UnitType = &unitType
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.Page = pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		rows, nextCursor, err := svc.ListPayouts(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := payoutListResponse{NextCursor: nextCursor, Payouts: make([]payoutResponse, 0, len(rows))}
		for i := range rows {
			payload.Payouts = append(payload.Payouts, payoutResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, payload)
	}
}

// PayoutDetail returns one payout record.
func PayoutDetail(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := pathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.GetPayout(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payoutResponseFromModel(record))
	}
}

// PayoutProgress returns the derived payment view of one record.
func PayoutProgress(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := pathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		progress, err := svc.GetProgress(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, progress)
	}
}

// TeacherPayoutSummary aggregates a teacher's payouts by unit type.
func TeacherPayoutSummary(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teacherID, err := pathUUID(r, "teacherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.GetTeacherSummary(r.Context(), teacherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type payoutApproveRequest struct {
	Method      string  `json:"method" validate:"required"`
	ActorUserID *string `json:"actor_user_id"`
}

// PayoutApprove settles the full outstanding amount of a record.
func PayoutApprove(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := pathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload payoutApproveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}
		actor, err := actorFromRequest(payload.ActorUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.ApproveAndPay(r.Context(), payoutID, method, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payoutResponseFromModel(record))
	}
}

type payoutInstallmentRequest struct {
	Amount      types.Money `json:"amount"`
	Method      string      `json:"method" validate:"required"`
	ActorUserID *string     `json:"actor_user_id"`
}

// PayoutInstallment applies a partial payment toward a whole-class payout.
func PayoutInstallment(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := pathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload payoutInstallmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}
		actor, err := actorFromRequest(payload.ActorUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.PayInstallment(r.Context(), payoutID, payload.Amount, method, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payoutResponseFromModel(record))
	}
}

type payoutCreateRequest struct {
	TeacherID      string      `json:"teacher_id" validate:"required"`
	ClassID        string      `json:"class_id" validate:"required"`
	SessionID      *string     `json:"session_id"`
	Month          *int        `json:"month"`
	Year           *int        `json:"year"`
	UnitType       string      `json:"unit_type" validate:"required"`
	UnitPrice      types.Money `json:"unit_price"`
	UnitCount      string      `json:"unit_count"`
	BranchID       string      `json:"branch_id" validate:"required"`
	CenterID       string      `json:"center_id" validate:"required"`
	IdempotencyKey *string     `json:"idempotency_key"`
	ActorUserID    *string     `json:"actor_user_id"`
}

func (req payoutCreateRequest) toParams() (payouts.CreatePayoutParams, error) {
	teacherID, err := uuid.Parse(strings.TrimSpace(req.TeacherID))
	if err != nil {
		return payouts.CreatePayoutParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid teacher_id")
	}
	classID, err := uuid.Parse(strings.TrimSpace(req.ClassID))
	if err != nil {
		return payouts.CreatePayoutParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid class_id")
	}
	branchID, err := uuid.Parse(strings.TrimSpace(req.BranchID))
	if err != nil {
		return payouts.CreatePayoutParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid branch_id")
	}
	centerID, err := uuid.Parse(strings.TrimSpace(req.CenterID))
	if err != nil {
		return payouts.CreatePayoutParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid center_id")
	}
	unitType, err := enums.ParsePayoutUnitType(strings.TrimSpace(req.UnitType))
	if err != nil {
		return payouts.CreatePayoutParams{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit_type")
	}

	params := payouts.CreatePayoutParams{
		TeacherID:      teacherID,
		ClassID:        classID,
		Month:          req.Month,
		Year:           req.Year,
		UnitType:       unitType,
		UnitPrice:      req.UnitPrice,
		UnitCount:      decimal.NewFromInt(1),
		BranchID:       branchID,
		CenterID:       centerID,
		IdempotencyKey: req.IdempotencyKey,
	}
	if req.SessionID != nil {
		sessionID, err := uuid.Parse(strings.TrimSpace(*req.SessionID))
		if err != nil {
			return payouts.CreatePayoutParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session_id")
		}
		params.SessionID = &sessionID
	}
	if strings.TrimSpace(req.UnitCount) != "" {
		count, err := decimal.NewFromString(strings.TrimSpace(req.UnitCount))
		if err != nil {
			return payouts.CreatePayoutParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_count")
		}
		params.UnitCount = count
	}
	return params, nil
}

// PayoutCreate is the trigger-facing creation endpoint.
func PayoutCreate(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload payoutCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := payload.toParams()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorFromRequest(payload.ActorUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreatePayout(r.Context(), params, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payoutResponseFromModel(record))
	}
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func actorFromRequest(actorUserID *string) (*outbox.ActorRef, error) {
	if actorUserID == nil || strings.TrimSpace(*actorUserID) == "" {
		return outbox.SystemActor(), nil
	}
	userID, err := uuid.Parse(strings.TrimSpace(*actorUserID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor_user_id")
	}
	return outbox.UserActor(userID), nil
}
