package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
)

func TestTransitionAllowed(t *testing.T) {
	assert.True(t, transitionAllowed(models.AppointmentStatusScheduled, models.AppointmentStatusEnRoute))
	assert.True(t, transitionAllowed(models.AppointmentStatusScheduled, models.AppointmentStatusInProgress))
	assert.True(t, transitionAllowed(models.AppointmentStatusEnRoute, models.AppointmentStatusInProgress))
	assert.True(t, transitionAllowed(models.AppointmentStatusInProgress, models.AppointmentStatusCompleted))
	assert.True(t, transitionAllowed(models.AppointmentStatusInProgress, models.AppointmentStatusCanceled))

	// Completion requires in-progress work.
	assert.False(t, transitionAllowed(models.AppointmentStatusScheduled, models.AppointmentStatusCompleted))
	assert.False(t, transitionAllowed(models.AppointmentStatusEnRoute, models.AppointmentStatusCompleted))

	// Terminal states stay terminal.
	assert.False(t, transitionAllowed(models.AppointmentStatusCompleted, models.AppointmentStatusScheduled))
	assert.False(t, transitionAllowed(models.AppointmentStatusCanceled, models.AppointmentStatusScheduled))

	assert.False(t, transitionAllowed(models.AppointmentStatusScheduled, "unknown"))
	assert.False(t, transitionAllowed("", models.AppointmentStatusScheduled))
}

func TestParseScheduleWindow(t *testing.T) {
	start, end, err := parseScheduleWindow("2025-06-02T09:00:00Z", "2025-06-02T11:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 2*time.Hour, end.Sub(start))

	_, _, err = parseScheduleWindow("not-a-time", "2025-06-02T11:00:00Z")
	assert.Error(t, err)

	_, _, err = parseScheduleWindow("2025-06-02T09:00:00Z", "yesterday")
	assert.Error(t, err)

	// End must come strictly after start.
	_, _, err = parseScheduleWindow("2025-06-02T11:00:00Z", "2025-06-02T09:00:00Z")
	assert.Error(t, err)
	_, _, err = parseScheduleWindow("2025-06-02T09:00:00Z", "2025-06-02T09:00:00Z")
	assert.Error(t, err)
}
