package mapper

import (
	"encoding/json"

	"amanai-be/internal/entity"
	"amanai-be/internal/model"
	"amanai-be/pkg/encounter"

	"gorm.io/datatypes"
)

type EncounterMapper struct{}

func NewEncounterMapper() *EncounterMapper {
	return &EncounterMapper{}
}

func (m *EncounterMapper) ToEntity(e *model.Encounter) *entity.Encounter {
	if e == nil {
		return nil
	}

	state := encounter.State{}
	if len(e.State) > 0 {
		_ = json.Unmarshal(e.State, &state)
	}

	return &entity.Encounter{
		Id:             e.Id,
		UserId:         e.UserId,
		Status:         encounter.Status(e.Status),
		State:          state,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		PausedAt:       e.PausedAt,
		ResumedAt:      e.ResumedAt,
		LastActivityAt: e.LastActivityAt,
	}
}

func (m *EncounterMapper) ToModel(e *entity.Encounter) *model.Encounter {
	if e == nil {
		return nil
	}

	state := e.State
	if state == nil {
		state = encounter.State{}
	}
	raw, _ := json.Marshal(state)

	return &model.Encounter{
		Id:             e.Id,
		UserId:         e.UserId,
		Status:         string(e.Status),
		State:          datatypes.JSON(raw),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		PausedAt:       e.PausedAt,
		ResumedAt:      e.ResumedAt,
		LastActivityAt: e.LastActivityAt,
	}
}

func (m *EncounterMapper) ToEntities(encounters []*model.Encounter) []*entity.Encounter {
	entities := make([]*entity.Encounter, len(encounters))
	for i, e := range encounters {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
