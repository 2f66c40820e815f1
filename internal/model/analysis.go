package model

import "time"

type ComparisonStatus string

const (
	ComparisonPending    ComparisonStatus = "pending"
	ComparisonProcessing ComparisonStatus = "processing"
	ComparisonCompleted  ComparisonStatus = "completed"
	ComparisonFailed     ComparisonStatus = "failed"
	ComparisonCancelled  ComparisonStatus = "cancelled"
	ComparisonTimeout    ComparisonStatus = "timeout"
)

// Terminal reports whether polling should stop.
func (s ComparisonStatus) Terminal() bool {
	switch s {
	case ComparisonCompleted, ComparisonFailed, ComparisonCancelled, ComparisonTimeout:
		return true
	}
	return false
}

type ComparisonRequest struct {
	PatientID  string   `json:"patient_id" binding:"required"`
	LabTestIDs []string `json:"lab_test_ids" binding:"required,min=2,dive,required"`
}

// ComparisonJob tracks one AI comparison analysis run by the backend.
type ComparisonJob struct {
	ID        string           `json:"id"`
	ClinicID  string           `json:"clinic_id"`
	PatientID string           `json:"patient_id"`
	Status    ComparisonStatus `json:"status"`
	Result    JSONMap          `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	Attempts  int              `json:"attempts"`
	StartedAt time.Time        `json:"started_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
