package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/pkg/enums"
)

// ActorRef identifies who produced the event. Background jobs carry the system
// kind with a nil user id.
type ActorRef struct {
	Kind   enums.ActorKind `json:"kind"`
	UserID *uuid.UUID      `json:"userId,omitempty"`
}

// SystemActor is the actor recorded for scheduler-initiated mutations.
func SystemActor() *ActorRef {
	return &ActorRef{Kind: enums.ActorKindSystem}
}

// UserActor records a human-initiated mutation.
func UserActor(userID uuid.UUID) *ActorRef {
	return &ActorRef{Kind: enums.ActorKindUser, UserID: &userID}
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
