package triggers

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/logger"
)

func newConsumerFixture(t *testing.T, now time.Time) (*Consumer, *adapterFixture) {
	t.Helper()
	fx := newAdapterFixture(t, now)
	consumer := &Consumer{
		adapter: fx.adapter,
		logg:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
	return consumer, fx
}

func eventMessage(t *testing.T, eventType string, payload any) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &pubsub.Message{
		Attributes: map[string]string{"event_type": eventType},
		Data:       data,
	}
}

func TestConsumerSessionFinished(t *testing.T) {
	consumer, fx := newConsumerFixture(t, time.Now())
	class := fx.addClass(enums.ClassPaymentStrategySession, 40)
	sessionID := uuid.New()

	msg := eventMessage(t, eventSessionFinished, sessionFinishedPayload{
		SessionID:  sessionID.String(),
		ClassID:    class.ID.String(),
		TeacherID:  class.TeacherID.String(),
		BranchID:   class.BranchID.String(),
		CenterID:   class.CenterID.String(),
		StartTime:  time.Now().Add(-time.Hour),
		EndTime:    time.Now(),
		Attendance: []string{"present", "absent"},
	})
	consumer.process(context.Background(), msg)

	if len(fx.ledger.created) != 1 {
		t.Fatalf("expected one payout, got %d", len(fx.ledger.created))
	}
	created := fx.ledger.created[0]
	if created.SessionID == nil || *created.SessionID != sessionID {
		t.Fatalf("session id not carried through")
	}
	if created.UnitType != enums.PayoutUnitTypeSession {
		t.Fatalf("unexpected unit type %s", created.UnitType)
	}
}

func TestConsumerClassCreatedWithInitialPayment(t *testing.T) {
	consumer, fx := newConsumerFixture(t, time.Now())
	class := fx.addClass(enums.ClassPaymentStrategyClass, 500)
	initial := "100.00"

	msg := eventMessage(t, eventClassCreated, classCreatedPayload{
		ClassID:        class.ID.String(),
		InitialPayment: &initial,
		Method:         "cash",
	})
	consumer.process(context.Background(), msg)

	if len(fx.ledger.classCreated) != 1 {
		t.Fatalf("expected one class payout, got %d", len(fx.ledger.classCreated))
	}
	created := fx.ledger.classCreated[0]
	if created.InitialPayment == nil || created.InitialPayment.String() != "100.00" {
		t.Fatalf("initial payment lost: %+v", created.InitialPayment)
	}
	if created.Method != enums.PaymentMethodCash {
		t.Fatalf("method lost: %s", created.Method)
	}
}

func TestConsumerClassStatusChanged(t *testing.T) {
	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	consumer, fx := newConsumerFixture(t, now)
	class := fx.addClass(enums.ClassPaymentStrategyMonth, 3000)

	msg := eventMessage(t, eventClassStatusChanged, classStatusChangedPayload{
		ClassID:   class.ID.String(),
		NewStatus: "finished",
	})
	consumer.process(context.Background(), msg)

	if len(fx.ledger.created) != 1 {
		t.Fatalf("expected one payout, got %d", len(fx.ledger.created))
	}
	if fx.ledger.created[0].UnitType != enums.PayoutUnitTypeMonth {
		t.Fatalf("unexpected unit type %s", fx.ledger.created[0].UnitType)
	}
}

func TestConsumerMalformedPayloadIsSwallowed(t *testing.T) {
	consumer, fx := newConsumerFixture(t, time.Now())

	consumer.process(context.Background(), &pubsub.Message{
		Attributes: map[string]string{"event_type": eventSessionFinished},
		Data:       []byte("{not json"),
	})

	if len(fx.ledger.created) != 0 {
		t.Fatalf("malformed payload must not create payouts")
	}
}

func TestConsumerSkipsUnknownEventType(t *testing.T) {
	consumer, fx := newConsumerFixture(t, time.Now())

	consumer.process(context.Background(), &pubsub.Message{
		Attributes: map[string]string{"event_type": "enrollment.updated"},
		Data:       []byte(`{}`),
	})

	if len(fx.ledger.created) != 0 || len(fx.ledger.classCreated) != 0 {
		t.Fatalf("unknown events must be ignored")
	}
}
