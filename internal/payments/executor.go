// Package payments is the boundary to the treasury service that actually moves
// money between wallets and cashboxes. The ledger only ever sees the contract
// below; the transfer itself either fully succeeds or raises.
package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/types"
)

// ExecuteParams describes one wallet-to-wallet transfer.
type ExecuteParams struct {
	Amount       types.Money         `json:"amount"`
	SenderID     uuid.UUID           `json:"senderId"`
	SenderType   enums.PartyType     `json:"senderType"`
	ReceiverID   uuid.UUID           `json:"receiverId"`
	ReceiverType enums.PartyType     `json:"receiverType"`
	Reason       string              `json:"reason"`
	Method       enums.PaymentMethod `json:"method"`
	ReferenceID  uuid.UUID           `json:"referenceId"`
}

// Result carries the identifier of the completed transfer.
type Result struct {
	PaymentID string `json:"paymentId"`
}

// Executor performs a synchronous money transfer. Callers invoke it inside their
// own database transaction so a failed transfer rolls the whole mutation back.
type Executor interface {
	Execute(ctx context.Context, params ExecuteParams) (Result, error)
}
