package entity

import (
	"time"

	"amanai-be/pkg/analysis"
	"amanai-be/pkg/report"

	"github.com/google/uuid"
)

type Report struct {
	Id          uuid.UUID
	UserId      string
	EncounterId *uuid.UUID
	Kind        report.Kind
	Fields      analysis.ReportFields
	Patient     report.Patient
	ContentHash string
	PdfPath     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Document builds the renderable report.
func (r *Report) Document() report.Report {
	return report.FromFields(report.Meta{
		ID:        r.Id.String(),
		Patient:   r.Patient,
		CreatedAt: r.CreatedAt,
	}, r.Fields)
}
