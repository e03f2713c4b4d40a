package enums

import "fmt"

// ClassPaymentStrategy is how a class contract compensates its teacher.
type ClassPaymentStrategy string

const (
	ClassPaymentStrategySession ClassPaymentStrategy = "per_session"
	ClassPaymentStrategyHour    ClassPaymentStrategy = "per_hour"
	ClassPaymentStrategyStudent ClassPaymentStrategy = "per_student"
	ClassPaymentStrategyMonth   ClassPaymentStrategy = "per_month"
	ClassPaymentStrategyClass   ClassPaymentStrategy = "whole_class"
)

var validClassPaymentStrategies = []ClassPaymentStrategy{
	ClassPaymentStrategySession,
	ClassPaymentStrategyHour,
	ClassPaymentStrategyStudent,
	ClassPaymentStrategyMonth,
	ClassPaymentStrategyClass,
}

// String implements fmt.Stringer.
func (s ClassPaymentStrategy) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ClassPaymentStrategy.
func (s ClassPaymentStrategy) IsValid() bool {
	for _, candidate := range validClassPaymentStrategies {
		if candidate == s {
			return true
		}
	}
	return false
}

// UnitType maps a strategy onto the payout unit it produces.
func (s ClassPaymentStrategy) UnitType() (PayoutUnitType, bool) {
	switch s {
	case ClassPaymentStrategySession:
		return PayoutUnitTypeSession, true
	case ClassPaymentStrategyHour:
		return PayoutUnitTypeHour, true
	case ClassPaymentStrategyStudent:
		return PayoutUnitTypeStudent, true
	case ClassPaymentStrategyMonth:
		return PayoutUnitTypeMonth, true
	case ClassPaymentStrategyClass:
		return PayoutUnitTypeClass, true
	}
	return "", false
}

// ParseClassPaymentStrategy converts raw input into a ClassPaymentStrategy.
func ParseClassPaymentStrategy(value string) (ClassPaymentStrategy, error) {
	for _, candidate := range validClassPaymentStrategies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid class payment strategy %q", value)
}
