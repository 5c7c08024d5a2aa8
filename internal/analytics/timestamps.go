package analytics

import "time"

const businessDateLayout = "2006-01-02"

// SaleTimestamp prefers the sale creation time and falls back to the event time.
func SaleTimestamp(createdAt, occurredAt time.Time) time.Time {
	if !createdAt.IsZero() {
		return createdAt.UTC()
	}
	return occurredAt.UTC()
}

// BusinessDate returns the store-local calendar day of t.
func BusinessDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(businessDateLayout)
}
