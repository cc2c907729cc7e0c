package safework

import (
	"fmt"
	"time"
)

// Status is the compliance state of a time-bound record relative to a day.
type Status string

const (
	StatusValid    Status = "valid"
	StatusExpiring Status = "expiring"
	StatusExpired  Status = "expired"
)

// ExpiringWindowDays is the number of days before expiry during which a
// record is reported as expiring. The window start is inclusive.
const ExpiringWindowDays = 30

// Statuses lists every status in severity order.
var Statuses = []Status{StatusValid, StatusExpiring, StatusExpired}

// ParseStatus converts a user-supplied string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusValid, StatusExpiring, StatusExpired:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
	}
}

// Classification is the result of classifying a record: its expiry day and
// the status that expiry implies on the classification day.
type Classification struct {
	Status     Status
	ExpiryDate time.Time
}

// ClassifyDuration derives the expiry from an issue date plus a validity
// period in whole calendar months and classifies it against today.
// A zero validity period expires on the issue date itself.
func ClassifyDuration(issueDate time.Time, months int, today time.Time) (Classification, error) {
	if issueDate.IsZero() {
		return Classification{}, fmt.Errorf("%w: issue date is required", ErrInvalidInput)
	}
	if months < 0 {
		return Classification{}, fmt.Errorf("%w: validity period must not be negative, got %d", ErrInvalidInput, months)
	}
	if today.IsZero() {
		return Classification{}, fmt.Errorf("%w: classification day is required", ErrInvalidInput)
	}

	expiry := AddMonths(dayOf(issueDate), months)
	return Classification{Status: StatusAt(expiry, today), ExpiryDate: expiry}, nil
}

// ClassifyExpiry classifies an explicit expiry date against today.
func ClassifyExpiry(expiryDate, today time.Time) (Classification, error) {
	if expiryDate.IsZero() {
		return Classification{}, fmt.Errorf("%w: expiry date is required", ErrInvalidInput)
	}
	if today.IsZero() {
		return Classification{}, fmt.Errorf("%w: classification day is required", ErrInvalidInput)
	}

	expiry := dayOf(expiryDate)
	return Classification{Status: StatusAt(expiry, today), ExpiryDate: expiry}, nil
}

// StatusAt compares calendar days only: the expiry day itself is still
// expiring and the record is expired from the following day on.
func StatusAt(expiryDate, today time.Time) Status {
	expiry := dayOf(expiryDate)
	day := dayOf(today)

	switch {
	case day.After(expiry):
		return StatusExpired
	case !day.Before(expiry.AddDate(0, 0, -ExpiringWindowDays)):
		return StatusExpiring
	default:
		return StatusValid
	}
}

// DaysUntil returns the number of calendar days from today to expiry.
// The result is negative once the record has expired.
func DaysUntil(expiryDate, today time.Time) int {
	// Unix seconds instead of Sub: a Duration saturates after about 292 years.
	return int((dayOf(expiryDate).Unix() - dayOf(today).Unix()) / 86400)
}

// AddMonths advances t by n calendar months, clamping the day to the last
// day of the resulting month (Jan 31 + 1 month = Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()

	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// dayOf truncates t to midnight UTC of its own calendar day, so comparisons
// ignore the time of day and the zone the caller read the clock in.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
