package enums

import "fmt"

// ClassStatus is the lifecycle state of a class contract.
type ClassStatus string

const (
	ClassStatusDraft     ClassStatus = "draft"
	ClassStatusActive    ClassStatus = "active"
	ClassStatusFinished  ClassStatus = "finished"
	ClassStatusCancelled ClassStatus = "cancelled"
)

var validClassStatuses = []ClassStatus{
	ClassStatusDraft,
	ClassStatusActive,
	ClassStatusFinished,
	ClassStatusCancelled,
}

// String implements fmt.Stringer.
func (s ClassStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ClassStatus.
func (s ClassStatus) IsValid() bool {
	for _, candidate := range validClassStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsFinished reports whether the class has reached a terminal teaching state.
func (s ClassStatus) IsFinished() bool {
	return s == ClassStatusFinished
}

// ParseClassStatus converts raw input into a ClassStatus.
func ParseClassStatus(value string) (ClassStatus, error) {
	for _, candidate := range validClassStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid class status %q", value)
}
