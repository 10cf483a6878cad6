package implementation

import (
	"context"
	"errors"

	"amanai-be/internal/entity"
	"amanai-be/internal/mapper"
	"amanai-be/internal/model"
	"amanai-be/internal/repository/contract"
	"amanai-be/internal/repository/specification"

	"gorm.io/gorm"
)

type EncounterRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EncounterMapper
}

func NewEncounterRepository(db *gorm.DB) contract.EncounterRepository {
	return &EncounterRepositoryImpl{
		db:     db,
		mapper: mapper.NewEncounterMapper(),
	}
}

func (r *EncounterRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EncounterRepositoryImpl) Create(ctx context.Context, encounter *entity.Encounter) error {
	m := r.mapper.ToModel(encounter)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*encounter = *r.mapper.ToEntity(m)
	return nil
}

// Update saves every column, so cleared timestamps are written as NULL.
func (r *EncounterRepositoryImpl) Update(ctx context.Context, encounter *entity.Encounter) error {
	m := r.mapper.ToModel(encounter)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*encounter = *r.mapper.ToEntity(m)
	return nil
}

func (r *EncounterRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Encounter, error) {
	var m model.Encounter
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *EncounterRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Encounter, error) {
	var models []*model.Encounter
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *EncounterRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Encounter{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
