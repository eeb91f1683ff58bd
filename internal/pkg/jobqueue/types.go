package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeAppointmentReminder JobType = "appointment_reminder"
	JobTypeInvoiceEmail        JobType = "invoice_email"
	JobTypeLowStockAlert       JobType = "low_stock_alert"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// AppointmentReminderJobPayload contains the payload for reminder jobs
type AppointmentReminderJobPayload struct {
	AppointmentID uint `json:"appointment_id"`
	CompanyID     uint `json:"company_id"`
	ClientID      uint `json:"client_id"`
}

// ToMap converts the payload to a map for storage
func (p AppointmentReminderJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"appointment_id": p.AppointmentID,
		"company_id":     p.CompanyID,
		"client_id":      p.ClientID,
	}
}

// AppointmentReminderJobPayloadFromMap creates a payload from a map
func AppointmentReminderJobPayloadFromMap(data map[string]interface{}) (*AppointmentReminderJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload AppointmentReminderJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// InvoiceEmailJobPayload contains the payload for invoice delivery jobs
type InvoiceEmailJobPayload struct {
	InvoiceID uint `json:"invoice_id"`
	CompanyID uint `json:"company_id"`
	ClientID  uint `json:"client_id"`
}

// ToMap converts the payload to a map for storage
func (p InvoiceEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"invoice_id": p.InvoiceID,
		"company_id": p.CompanyID,
		"client_id":  p.ClientID,
	}
}

// InvoiceEmailJobPayloadFromMap creates a payload from a map
func InvoiceEmailJobPayloadFromMap(data map[string]interface{}) (*InvoiceEmailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload InvoiceEmailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// LowStockAlertJobPayload contains the payload for low-stock alert jobs
type LowStockAlertJobPayload struct {
	PartID    uint `json:"part_id"`
	CompanyID uint `json:"company_id"`
}

// ToMap converts the payload to a map for storage
func (p LowStockAlertJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"part_id":    p.PartID,
		"company_id": p.CompanyID,
	}
}

// LowStockAlertJobPayloadFromMap creates a payload from a map
func LowStockAlertJobPayloadFromMap(data map[string]interface{}) (*LowStockAlertJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload LowStockAlertJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
