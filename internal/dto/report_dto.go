package dto

import (
	"time"

	"amanai-be/pkg/analysis"
	"amanai-be/pkg/report"

	"github.com/google/uuid"
)

type CreateReportRequest struct {
	EncounterId *uuid.UUID            `json:"encounter_id"`
	Patient     report.Patient        `json:"patient"`
	Fields      analysis.ReportFields `json:"fields"`
}

type CreateReportResponse struct {
	Id          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	ContentHash string    `json:"content_hash"`
	VerifyURL   string    `json:"verify_url"`
}

// VerifyReportResponse is public: it never carries the report body or the
// patient's full name.
type VerifyReportResponse struct {
	Id              uuid.UUID `json:"id"`
	Exists          bool      `json:"exists"`
	Kind            string    `json:"kind"`
	CreatedAt       time.Time `json:"created_at"`
	ContentHash     string    `json:"content_hash"`
	PatientInitials string    `json:"patient_initials"`
	Doctor          string    `json:"doctor,omitempty"`
}

type ShareReportRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RenderReportMessage struct {
	ReportId uuid.UUID `json:"report_id"`
}
