package unitofwork

import (
	"context"

	"amanai-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	EncounterRepository() contract.EncounterRepository
	ReportRepository() contract.ReportRepository
}
