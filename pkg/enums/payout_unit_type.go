package enums

import "fmt"

// PayoutUnitType is the billing granularity a payout record is priced in. It maps to
// the payout_unit_type enum in Postgres.
type PayoutUnitType string

const (
	PayoutUnitTypeSession PayoutUnitType = "session"
	PayoutUnitTypeHour    PayoutUnitType = "hour"
	PayoutUnitTypeStudent PayoutUnitType = "student"
	PayoutUnitTypeMonth   PayoutUnitType = "month"
	PayoutUnitTypeClass   PayoutUnitType = "class"
)

var validPayoutUnitTypes = []PayoutUnitType{
	PayoutUnitTypeSession,
	PayoutUnitTypeHour,
	PayoutUnitTypeStudent,
	PayoutUnitTypeMonth,
	PayoutUnitTypeClass,
}

// String implements fmt.Stringer.
func (t PayoutUnitType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known PayoutUnitType.
func (t PayoutUnitType) IsValid() bool {
	for _, candidate := range validPayoutUnitTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// SupportsInstallments reports whether partial payments are allowed for this unit
// type. Only whole-class contracts are paid down in installments.
func (t PayoutUnitType) SupportsInstallments() bool {
	return t == PayoutUnitTypeClass
}

// ParsePayoutUnitType converts raw input into a PayoutUnitType.
func ParsePayoutUnitType(value string) (PayoutUnitType, error) {
	for _, candidate := range validPayoutUnitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout unit type %q", value)
}
