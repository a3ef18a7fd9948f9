package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
)

const (
	minPeriodYear = 2000
	maxPeriodYear = 9999
)

// Period is one calendar month, the unit of billing.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewPeriod builds a Period. Callers taking user input must call Validate.
func NewPeriod(month, year int) Period {
	return Period{Month: month, Year: year}
}

// PeriodOf returns the period a calendar date falls in.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Validate rejects months outside 1..12 and implausible years.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12, got %d", apperrors.ErrValidation, p.Month)
	}
	if p.Year < minPeriodYear || p.Year > maxPeriodYear {
		return fmt.Errorf("%w: year must be between %d and %d, got %d", apperrors.ErrValidation, minPeriodYear, maxPeriodYear, p.Year)
	}
	return nil
}

// Start is the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant after the period (exclusive bound).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether the calendar date of t is inside the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

// MonthName returns the English month name, e.g. "March".
func (p Period) MonthName() string {
	return time.Month(p.Month).String()
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
