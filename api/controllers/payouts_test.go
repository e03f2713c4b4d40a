package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veltaedu/velta-backend/internal/payouts"
	"github.com/veltaedu/velta-backend/pkg/db/models"
	"github.com/veltaedu/velta-backend/pkg/enums"
	pkgerrors "github.com/veltaedu/velta-backend/pkg/errors"
	"github.com/veltaedu/velta-backend/pkg/logger"
	"github.com/veltaedu/velta-backend/pkg/outbox"
	"github.com/veltaedu/velta-backend/pkg/types"
)

type fakePayoutService struct {
	record       *models.PayoutRecord
	progress     payouts.Progress
	summary      payouts.TeacherSummary
	err          error
	lastAmount   types.Money
	lastMethod   enums.PaymentMethod
	lastActor    *outbox.ActorRef
	createParams *payouts.CreatePayoutParams
}

func (f *fakePayoutService) CreatePayout(_ context.Context, params payouts.CreatePayoutParams, actor *outbox.ActorRef) (*models.PayoutRecord, error) {
	f.createParams = &params
	f.lastActor = actor
	return f.record, f.err
}

func (f *fakePayoutService) PayInstallment(_ context.Context, _ uuid.UUID, amount types.Money, method enums.PaymentMethod, actor *outbox.ActorRef) (*models.PayoutRecord, error) {
	f.lastAmount = amount
	f.lastMethod = method
	f.lastActor = actor
	return f.record, f.err
}

func (f *fakePayoutService) ApproveAndPay(_ context.Context, _ uuid.UUID, method enums.PaymentMethod, actor *outbox.ActorRef) (*models.PayoutRecord, error) {
	f.lastMethod = method
	f.lastActor = actor
	return f.record, f.err
}

func (f *fakePayoutService) GetPayout(context.Context, uuid.UUID) (*models.PayoutRecord, error) {
	return f.record, f.err
}

func (f *fakePayoutService) ListPayouts(context.Context, payouts.ListQuery) ([]models.PayoutRecord, string, error) {
	if f.record == nil {
		return nil, "", f.err
	}
	return []models.PayoutRecord{*f.record}, "cursor123", f.err
}

func (f *fakePayoutService) GetProgress(context.Context, uuid.UUID) (payouts.Progress, error) {
	return f.progress, f.err
}

func (f *fakePayoutService) GetTeacherSummary(context.Context, uuid.UUID) (payouts.TeacherSummary, error) {
	return f.summary, f.err
}

func testRecord() *models.PayoutRecord {
	return &models.PayoutRecord{
		ID:        uuid.New(),
		TeacherID: uuid.New(),
		ClassID:   uuid.New(),
		UnitType:  enums.PayoutUnitTypeClass,
		UnitPrice: types.MoneyFromInt(500),
		UnitCount: decimal.NewFromInt(1),
		TotalPaid: types.MoneyFromInt(100),
		Status:    enums.PayoutStatusInstallment,
		BranchID:  uuid.New(),
		CenterID:  uuid.New(),
	}
}

func testRouter(svc PayoutService) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	r := chi.NewRouter()
	r.Route("/payouts", func(r chi.Router) {
		r.Get("/", PayoutList(svc, logg))
		r.Post("/", PayoutCreate(svc, logg))
		r.Route("/{payoutId}", func(r chi.Router) {
			r.Get("/", PayoutDetail(svc, logg))
			r.Get("/progress", PayoutProgress(svc, logg))
			r.Post("/approve", PayoutApprove(svc, logg))
			r.Post("/installments", PayoutInstallment(svc, logg))
		})
	})
	r.Get("/teachers/{teacherId}/payout-summary", TeacherPayoutSummary(svc, logg))
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPayoutDetail(t *testing.T) {
	svc := &fakePayoutService{record: testRecord()}
	router := testRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/payouts/"+svc.record.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data payoutResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.ID != svc.record.ID {
		t.Fatalf("wrong record returned")
	}
	if !envelope.Data.Remaining.Equal(types.MoneyFromInt(400)) {
		t.Fatalf("expected remaining 400.00, got %s", envelope.Data.Remaining)
	}
}

func TestPayoutDetailInvalidID(t *testing.T) {
	router := testRouter(&fakePayoutService{})
	rec := doJSON(t, router, http.MethodGet, "/payouts/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPayoutDetailNotFound(t *testing.T) {
	svc := &fakePayoutService{err: pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")}
	router := testRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/payouts/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPayoutList(t *testing.T) {
	svc := &fakePayoutService{record: testRecord()}
	router := testRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/payouts/?teacher_id="+svc.record.TeacherID.String()+"&status=installment", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data payoutListResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Payouts) != 1 || envelope.Data.NextCursor != "cursor123" {
		t.Fatalf("unexpected listing %+v", envelope.Data)
	}
}

func TestPayoutListRejectsBadStatus(t *testing.T) {
	router := testRouter(&fakePayoutService{})
	rec := doJSON(t, router, http.MethodGet, "/payouts/?status=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPayoutInstallment(t *testing.T) {
	svc := &fakePayoutService{record: testRecord()}
	router := testRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/payouts/"+svc.record.ID.String()+"/installments", map[string]any{
		"amount": "150.00",
		"method": "cash",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.lastAmount.Equal(types.MoneyFromInt(150)) {
		t.Fatalf("amount lost: %s", svc.lastAmount)
	}
	if svc.lastMethod != enums.PaymentMethodCash {
		t.Fatalf("method lost: %s", svc.lastMethod)
	}
	if svc.lastActor == nil || svc.lastActor.Kind != enums.ActorKindSystem {
		t.Fatalf("expected system actor default")
	}
}

func TestPayoutInstallmentOvershootStatus(t *testing.T) {
	svc := &fakePayoutService{err: pkgerrors.New(pkgerrors.CodeAmountInvalid, "payment amount exceeds remaining balance")}
	router := testRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/payouts/"+uuid.NewString()+"/installments", map[string]any{
		"amount": "999.00",
		"method": "cash",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestPayoutApproveWithUserActor(t *testing.T) {
	svc := &fakePayoutService{record: testRecord()}
	router := testRouter(svc)
	userID := uuid.NewString()

	rec := doJSON(t, router, http.MethodPost, "/payouts/"+svc.record.ID.String()+"/approve", map[string]any{
		"method":        "transfer",
		"actor_user_id": userID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastActor == nil || svc.lastActor.Kind != enums.ActorKindUser {
		t.Fatalf("expected user actor")
	}
	if svc.lastActor.UserID == nil || svc.lastActor.UserID.String() != userID {
		t.Fatalf("actor user id lost")
	}
}

func TestPayoutApproveRequiresMethod(t *testing.T) {
	router := testRouter(&fakePayoutService{record: testRecord()})
	rec := doJSON(t, router, http.MethodPost, "/payouts/"+uuid.NewString()+"/approve", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPayoutCreate(t *testing.T) {
	svc := &fakePayoutService{record: testRecord()}
	router := testRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/payouts/", map[string]any{
		"teacher_id": uuid.NewString(),
		"class_id":   uuid.NewString(),
		"unit_type":  "hour",
		"unit_price": "25.00",
		"unit_count": "1.5",
		"branch_id":  uuid.NewString(),
		"center_id":  uuid.NewString(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createParams == nil {
		t.Fatalf("service not called")
	}
	if svc.createParams.UnitType != enums.PayoutUnitTypeHour {
		t.Fatalf("unit type lost: %s", svc.createParams.UnitType)
	}
	if !svc.createParams.UnitCount.Equal(decimal.NewFromFloat(1.5)) {
		t.Fatalf("unit count lost: %s", svc.createParams.UnitCount)
	}
}

func TestTeacherPayoutSummary(t *testing.T) {
	teacherID := uuid.New()
	svc := &fakePayoutService{summary: payouts.TeacherSummary{TeacherID: teacherID, PayoutCount: 3}}
	router := testRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/teachers/"+teacherID.String()+"/payout-summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data payouts.TeacherSummary `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.PayoutCount != 3 {
		t.Fatalf("summary lost: %+v", envelope.Data)
	}
}
