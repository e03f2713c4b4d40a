package enums

// OutboxEventType enumerates the domain events published via the outbox.
type OutboxEventType string

const (
	EventPayoutCreated         OutboxEventType = "payout.created"
	EventPayoutInstallmentPaid OutboxEventType = "payout.installment_paid"
	EventPayoutPaid            OutboxEventType = "payout.paid"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregatePayout OutboxAggregateType = "payout"
)
