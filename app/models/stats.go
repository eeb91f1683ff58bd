package models

import "time"

// DailyStats is a per-day rollup used by dashboard queries.
type DailyStats struct {
	Date              time.Time `json:"date"`
	AppointmentsTotal int64     `json:"appointments_total"`
	AppointmentsDone  int64     `json:"appointments_done"`
	InvoicedCents     int64     `json:"invoiced_cents"`
}
