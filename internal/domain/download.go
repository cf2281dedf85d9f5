package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of a download
type DownloadStatus string

const (
	StatusQueued     DownloadStatus = "queued"
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
	StatusCancelled  DownloadStatus = "cancelled"
)

// Download is the persisted history record of one tool invocation
type Download struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	BatchID      string         `json:"batch_id,omitempty" gorm:"index"`
	Source       string         `json:"source" gorm:"not null;index"`
	Status       DownloadStatus `json:"status" gorm:"not null;index"`
	Request      string         `json:"request" gorm:"type:text"` // JSON encoded DownloadRequest
	ExitCode     int            `json:"exit_code"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// NewDownload creates a queued record for the request
func NewDownload(req DownloadRequest, batchID string) *Download {
	data, _ := json.Marshal(req)
	now := time.Now()
	return &Download{
		ID:        uuid.New().String(),
		BatchID:   batchID,
		Source:    req.Source,
		Status:    StatusQueued,
		Request:   string(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DecodeRequest returns the request stored on the record
func (d *Download) DecodeRequest() (DownloadRequest, error) {
	req := NewDownloadRequest(d.Source)
	if d.Request == "" {
		return req, nil
	}
	if err := json.Unmarshal([]byte(d.Request), &req); err != nil {
		return DownloadRequest{}, err
	}
	return req, nil
}

// MarkProcessing marks the download as processing
func (d *Download) MarkProcessing() {
	d.Status = StatusProcessing
	now := time.Now()
	d.StartedAt = &now
	d.UpdatedAt = now
}

// MarkCompleted marks the download as completed
func (d *Download) MarkCompleted() {
	d.Status = StatusCompleted
	d.ExitCode = 0
	d.ErrorMessage = ""
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkFailed marks the download as failed with the tool's exit code
func (d *Download) MarkFailed(exitCode int, err error) {
	d.Status = StatusFailed
	d.ExitCode = exitCode
	if err != nil {
		d.ErrorMessage = err.Error()
	}
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkCancelled marks the download as cancelled
func (d *Download) MarkCancelled() {
	d.Status = StatusCancelled
	d.UpdatedAt = time.Now()
}

// Requeue resets a finished record so the queue picks it up again
func (d *Download) Requeue() {
	d.Status = StatusQueued
	d.ExitCode = 0
	d.ErrorMessage = ""
	d.StartedAt = nil
	d.CompletedAt = nil
	d.UpdatedAt = time.Now()
}

// IsTerminal checks if the download is in a terminal state
func (d *Download) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed || d.Status == StatusCancelled
}

// CanRetry checks if the download can be queued again
func (d *Download) CanRetry() bool {
	return d.Status == StatusFailed || d.Status == StatusCancelled
}

// ValidateStatus checks if a status string is known
func ValidateStatus(status DownloadStatus) bool {
	switch status {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
