package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Budget is a user's spending ceiling for one calendar month.
type Budget struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Month     string    `json:"month"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const monthLayout = "2006-01"

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ParseMonth validates a YYYY-MM month key.
func ParseMonth(key string) (time.Time, error) {
	if !monthPattern.MatchString(key) {
		return time.Time{}, NewValidationError("month", "Month must be in YYYY-MM format (e.g., 2025-04)")
	}
	t, err := time.Parse(monthLayout, key)
	if err != nil {
		return time.Time{}, NewValidationError("month", fmt.Sprintf("%q is not a calendar month", key))
	}
	return t, nil
}

// MonthKey returns the YYYY-MM key of t in t's location.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// MonthRange returns [start, end) of the month key in loc.
func MonthRange(key string, loc *time.Location) (time.Time, time.Time, error) {
	m, err := ParseMonth(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0), nil
}
