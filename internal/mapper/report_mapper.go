package mapper

import (
	"encoding/json"

	"amanai-be/internal/entity"
	"amanai-be/internal/model"
	"amanai-be/pkg/analysis"
	"amanai-be/pkg/report"

	"gorm.io/datatypes"
)

type ReportMapper struct{}

func NewReportMapper() *ReportMapper {
	return &ReportMapper{}
}

func (m *ReportMapper) ToEntity(r *model.Report) *entity.Report {
	if r == nil {
		return nil
	}

	var fields analysis.ReportFields
	if len(r.Fields) > 0 {
		_ = json.Unmarshal(r.Fields, &fields)
	}
	var patient report.Patient
	if len(r.Patient) > 0 {
		_ = json.Unmarshal(r.Patient, &patient)
	}

	return &entity.Report{
		Id:          r.Id,
		UserId:      r.UserId,
		EncounterId: r.EncounterId,
		Kind:        report.Kind(r.Kind),
		Fields:      fields,
		Patient:     patient,
		ContentHash: r.ContentHash,
		PdfPath:     r.PdfPath,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (m *ReportMapper) ToModel(r *entity.Report) *model.Report {
	if r == nil {
		return nil
	}

	fields, _ := json.Marshal(r.Fields)
	patient, _ := json.Marshal(r.Patient)

	return &model.Report{
		Id:          r.Id,
		UserId:      r.UserId,
		EncounterId: r.EncounterId,
		Kind:        string(r.Kind),
		Fields:      datatypes.JSON(fields),
		Patient:     datatypes.JSON(patient),
		ContentHash: r.ContentHash,
		PdfPath:     r.PdfPath,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (m *ReportMapper) ToEntities(reports []*model.Report) []*entity.Report {
	entities := make([]*entity.Report, len(reports))
	for i, r := range reports {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
