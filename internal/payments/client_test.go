package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/pkg/config"
	"github.com/veltaedu/velta-backend/pkg/enums"
	pkgerrors "github.com/veltaedu/velta-backend/pkg/errors"
	"github.com/veltaedu/velta-backend/pkg/types"
)

func testParams() ExecuteParams {
	return ExecuteParams{
		Amount:       types.MoneyFromInt(150),
		SenderID:     uuid.New(),
		SenderType:   enums.PartyTypeBranchCashbox,
		ReceiverID:   uuid.New(),
		ReceiverType: enums.PartyTypeTeacherWallet,
		Reason:       "teacher payout",
		Method:       enums.PaymentMethodTransfer,
		ReferenceID:  uuid.New(),
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.PaymentsConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func TestExecuteSuccess(t *testing.T) {
	var received ExecuteParams
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transfers" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"paymentId": "pay_123"})
	})

	params := testParams()
	result, err := client.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.PaymentID != "pay_123" {
		t.Fatalf("unexpected payment id %s", result.PaymentID)
	}
	if !received.Amount.Equal(params.Amount) {
		t.Fatalf("amount not serialized: %s", received.Amount)
	}
	if received.SenderType != enums.PartyTypeBranchCashbox {
		t.Fatalf("sender type lost: %s", received.SenderType)
	}
}

func TestExecuteRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "insufficient_funds", "message": "cashbox empty"})
	})

	_, err := client.Execute(context.Background(), testParams())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeAmountInvalid {
		t.Fatalf("expected amount error, got %v", err)
	}
}

func TestExecuteServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Execute(context.Background(), testParams())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestExecuteMissingPaymentID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := client.Execute(context.Background(), testParams())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestExecuteFailureIsNotRetried(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Execute(context.Background(), testParams())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("transfer must be attempted exactly once, got %d attempts", attempts)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.PaymentsConfig{}); err == nil {
		t.Fatal("expected error without base url")
	}
}
