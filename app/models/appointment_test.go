package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentOverlaps(t *testing.T) {
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	appt := Appointment{
		ScheduledStart: base,
		ScheduledEnd:   base.Add(2 * time.Hour),
	}

	assert.True(t, appt.Overlaps(base.Add(time.Hour), base.Add(3*time.Hour)))
	assert.True(t, appt.Overlaps(base.Add(-time.Hour), base.Add(time.Hour)))
	assert.True(t, appt.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)))
	assert.True(t, appt.Overlaps(base.Add(-time.Hour), base.Add(3*time.Hour)))

	// Touching windows do not overlap.
	assert.False(t, appt.Overlaps(base.Add(2*time.Hour), base.Add(3*time.Hour)))
	assert.False(t, appt.Overlaps(base.Add(-2*time.Hour), base))
	assert.False(t, appt.Overlaps(base.Add(5*time.Hour), base.Add(6*time.Hour)))
}

func TestAppointmentValidate(t *testing.T) {
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	appt := Appointment{
		CompanyID:      1,
		ClientID:       1,
		JobType:        JobTypeRepair,
		Status:         AppointmentStatusScheduled,
		ScheduledStart: base,
		ScheduledEnd:   base.Add(time.Hour),
	}
	assert.NoError(t, appt.Validate())

	appt.JobType = "plumbing"
	assert.Error(t, appt.Validate())

	appt.JobType = JobTypeRepair
	appt.Status = "paused"
	assert.Error(t, appt.Validate())
}
