package triggers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/logger"
	"github.com/veltaedu/velta-backend/pkg/types"
)

const (
	eventSessionFinished    = "session.finished"
	eventClassCreated       = "class.created"
	eventClassStatusChanged = "class.status_changed"
)

// Consumer bridges the platform's class and session events from Pub/Sub into
// the trigger adapter. Malformed messages are acked and logged; the adapter
// itself never returns errors, so every understood message acks.
type Consumer struct {
	adapter      *Adapter
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer watching the class events subscription.
func NewConsumer(adapter *Adapter, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if adapter == nil {
		return nil, errors.New("trigger adapter is required")
	}
	if subscription == nil {
		return nil, errors.New("class events subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		adapter:      adapter,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		c.process(ctx, msg)
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	switch eventType {
	case eventSessionFinished:
		c.handleSessionFinished(logCtx, msg.Data)
	case eventClassCreated:
		c.handleClassCreated(logCtx, msg.Data)
	case eventClassStatusChanged:
		c.handleClassStatusChanged(logCtx, msg.Data)
	default:
		c.logg.Info(logCtx, "skipping unhandled event type")
	}
}

type sessionFinishedPayload struct {
	SessionID  string    `json:"session_id"`
	ClassID    string    `json:"class_id"`
	TeacherID  string    `json:"teacher_id"`
	BranchID   string    `json:"branch_id"`
	CenterID   string    `json:"center_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Attendance []string  `json:"attendance"`
}

func (c *Consumer) handleSessionFinished(ctx context.Context, data []byte) {
	var payload sessionFinishedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logg.Error(ctx, "failed to unmarshal session.finished payload", err)
		return
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		c.logg.Error(ctx, "session.finished payload has invalid session_id", err)
		return
	}
	classID, err := uuid.Parse(payload.ClassID)
	if err != nil {
		c.logg.Error(ctx, "session.finished payload has invalid class_id", err)
		return
	}
	teacherID, err := uuid.Parse(payload.TeacherID)
	if err != nil {
		c.logg.Error(ctx, "session.finished payload has invalid teacher_id", err)
		return
	}
	branchID, err := uuid.Parse(payload.BranchID)
	if err != nil {
		c.logg.Error(ctx, "session.finished payload has invalid branch_id", err)
		return
	}
	centerID, err := uuid.Parse(payload.CenterID)
	if err != nil {
		c.logg.Error(ctx, "session.finished payload has invalid center_id", err)
		return
	}

	attendance := make([]enums.AttendanceStatus, 0, len(payload.Attendance))
	for _, raw := range payload.Attendance {
		attendance = append(attendance, enums.AttendanceStatus(raw))
	}

	c.adapter.HandleSessionFinished(ctx, SessionFinishedEvent{
		SessionID:  sessionID,
		ClassID:    classID,
		TeacherID:  teacherID,
		BranchID:   branchID,
		CenterID:   centerID,
		StartTime:  payload.StartTime,
		EndTime:    payload.EndTime,
		Attendance: attendance,
	})
}

type classCreatedPayload struct {
	ClassID        string  `json:"class_id"`
	InitialPayment *string `json:"initial_payment,omitempty"`
	Method         string  `json:"method,omitempty"`
}

func (c *Consumer) handleClassCreated(ctx context.Context, data []byte) {
	var payload classCreatedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logg.Error(ctx, "failed to unmarshal class.created payload", err)
		return
	}

	classID, err := uuid.Parse(payload.ClassID)
	if err != nil {
		c.logg.Error(ctx, "class.created payload has invalid class_id", err)
		return
	}

	event := ClassCreatedEvent{ClassID: classID}
	if payload.InitialPayment != nil {
		amount, err := types.MoneyFromString(*payload.InitialPayment)
		if err != nil {
			c.logg.Error(ctx, "class.created payload has invalid initial_payment", err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			c.logg.Error(ctx, "class.created payload has invalid method", err)
			return
		}
		event.InitialPayment = &amount
		event.Method = method
	}

	c.adapter.HandleClassCreated(ctx, event)
}

type classStatusChangedPayload struct {
	ClassID   string `json:"class_id"`
	NewStatus string `json:"new_status"`
}

func (c *Consumer) handleClassStatusChanged(ctx context.Context, data []byte) {
	var payload classStatusChangedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logg.Error(ctx, "failed to unmarshal class.status_changed payload", err)
		return
	}

	classID, err := uuid.Parse(payload.ClassID)
	if err != nil {
		c.logg.Error(ctx, "class.status_changed payload has invalid class_id", err)
		return
	}
	status, err := enums.ParseClassStatus(payload.NewStatus)
	if err != nil {
		c.logg.Error(ctx, "class.status_changed payload has invalid new_status", err)
		return
	}

	c.adapter.HandleClassStatusChanged(ctx, ClassStatusChangedEvent{
		ClassID:   classID,
		NewStatus: status,
	})
}
