package contract

import (
	"context"

	"amanai-be/internal/entity"
	"amanai-be/internal/repository/specification"
)

type EncounterRepository interface {
	Create(ctx context.Context, encounter *entity.Encounter) error
	Update(ctx context.Context, encounter *entity.Encounter) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Encounter, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Encounter, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
