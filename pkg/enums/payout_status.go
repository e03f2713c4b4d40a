package enums

import "fmt"

// PayoutStatus tracks the payout record state machine. Maps to the payout_status
// enum in Postgres.
type PayoutStatus string

const (
	PayoutStatusPending     PayoutStatus = "pending"
	PayoutStatusInstallment PayoutStatus = "installment"
	PayoutStatusPaid        PayoutStatus = "paid"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusPending,
	PayoutStatusInstallment,
	PayoutStatusPaid,
}

// String implements fmt.Stringer.
func (s PayoutStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PayoutStatus.
func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the record can never be mutated again.
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusPaid
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
