// Package proration computes the fraction of a monthly fee a class earned inside a
// target calendar month. The math is pure and exact to the cent: day counts are
// inclusive and the single rounding step happens on the final amount.
package proration

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veltaedu/velta-backend/pkg/types"
)

// Result describes how much of the target month a class was active for.
type Result struct {
	DaysActive     int
	DaysInMonth    int
	ProratedAmount types.Money
	IsFullMonth    bool
}

// Prorate clamps the class's active interval to the target month and scales the
// monthly amount by the inclusive day count. classEnd == nil means the class is
// open-ended and runs through the end of the month. DaysActive <= 0 means the class
// was not active in that month; the caller must not create a payout for it.
func Prorate(monthlyAmount types.Money, classStart time.Time, classEnd *time.Time, month, year int) (Result, error) {
	if month < 1 || month > 12 {
		return Result{}, fmt.Errorf("invalid month %d", month)
	}

	monthStart, monthEnd := monthBounds(month, year)
	daysInMonth := monthEnd.Day()

	periodStart := dateOnly(classStart)
	if periodStart.Before(monthStart) {
		periodStart = monthStart
	}

	periodEnd := monthEnd
	if classEnd != nil {
		end := dateOnly(*classEnd)
		if end.Before(monthEnd) {
			periodEnd = end
		}
	}

	daysActive := inclusiveDays(periodStart, periodEnd)
	if daysActive <= 0 {
		return Result{DaysActive: daysActive, DaysInMonth: daysInMonth, ProratedAmount: types.Zero()}, nil
	}

	if daysActive >= daysInMonth {
		// A class covering the whole month earns the monthly fee exactly, with no
		// rounding drift from the division.
		return Result{
			DaysActive:     daysInMonth,
			DaysInMonth:    daysInMonth,
			ProratedAmount: monthlyAmount,
			IsFullMonth:    true,
		}, nil
	}

	fraction := decimal.NewFromInt(int64(daysActive)).Div(decimal.NewFromInt(int64(daysInMonth)))
	return Result{
		DaysActive:     daysActive,
		DaysInMonth:    daysInMonth,
		ProratedAmount: monthlyAmount.MulRound(fraction),
	}, nil
}

// WasActiveInMonth reports whether any part of the class's lifetime overlaps the
// target month. Cheap pre-filter before Prorate.
func WasActiveInMonth(classStart time.Time, classEnd *time.Time, month, year int) bool {
	if month < 1 || month > 12 {
		return false
	}
	monthStart, monthEnd := monthBounds(month, year)
	if dateOnly(classStart).After(monthEnd) {
		return false
	}
	if classEnd != nil && dateOnly(*classEnd).Before(monthStart) {
		return false
	}
	return true
}

// PreviousMonth returns the calendar month before the given moment, for the
// monthly settlement run.
func PreviousMonth(now time.Time) (month, year int) {
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := firstOfThisMonth.AddDate(0, 0, -1)
	return int(prev.Month()), prev.Year()
}

func monthBounds(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func inclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
