// Package triggers adapts business events (session finished, class created,
// class status changed) into ledger calls. Adapters never re-raise ledger
// failures into the event source: a payout problem must not abort a session
// completion, so errors are logged and swallowed here.
package triggers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/internal/payouts"
	"github.com/veltaedu/velta-backend/pkg/db/models"
	"github.com/veltaedu/velta-backend/pkg/logger"
	"github.com/veltaedu/velta-backend/pkg/outbox"
)

type ledger interface {
	CreatePayout(ctx context.Context, params payouts.CreatePayoutParams, actor *outbox.ActorRef) (*models.PayoutRecord, error)
	CreateClassPayout(ctx context.Context, params payouts.CreateClassPayoutParams, actor *outbox.ActorRef) (*models.PayoutRecord, error)
}

type classReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Class, error)
}

// AdapterParams collects the adapter dependencies.
type AdapterParams struct {
	Ledger  ledger
	Classes classReader
	Logger  *logger.Logger
	Now     func() time.Time
}

// Adapter translates events into payout creation.
type Adapter struct {
	ledger  ledger
	classes classReader
	logg    *logger.Logger
	now     func() time.Time
}

// NewAdapter wires the trigger adapter.
func NewAdapter(params AdapterParams) (*Adapter, error) {
	if params.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if params.Classes == nil {
		return nil, errors.New("class reader is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Adapter{
		ledger:  params.Ledger,
		classes: params.Classes,
		logg:    params.Logger,
		now:     params.Now,
	}, nil
}
