package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentReminderPayloadRoundTrip(t *testing.T) {
	in := AppointmentReminderJobPayload{
		AppointmentID: 12,
		CompanyID:     3,
		ClientID:      44,
	}

	out, err := AppointmentReminderJobPayloadFromMap(in.ToMap())
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestInvoiceEmailPayloadRoundTrip(t *testing.T) {
	in := InvoiceEmailJobPayload{
		InvoiceID: 9,
		CompanyID: 3,
		ClientID:  44,
	}

	out, err := InvoiceEmailJobPayloadFromMap(in.ToMap())
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestJobStatusTransitions(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypeAppointmentReminder,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("smtp timeout")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "smtp timeout", job.ErrorMsg)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	require.NotNil(t, job.CompletedAt)
	assert.False(t, job.IsRetryable())
}

func TestIsRetryableExhaustsAfterMaxRetries(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypeInvoiceEmail,
		Status:     JobStatusPending,
		MaxRetries: 2,
	}

	job.MarkAsFailed("first")
	assert.True(t, job.IsRetryable())
	job.MarkAsFailed("second")
	assert.False(t, job.IsRetryable())
}
