package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"amanai-be/internal/entity"
	"amanai-be/internal/model"
	"amanai-be/internal/repository/specification"
	"amanai-be/internal/repository/unitofwork"
	"amanai-be/pkg/database"
	"amanai-be/pkg/encounter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	driver := os.Getenv("DB_DRIVER")
	gormDB, err := database.NewGormDB(driver, dsn, database.Options{})
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	require.NoError(t, gormDB.AutoMigrate(&model.Encounter{}, &model.Report{}))

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.EncounterRepository())
	assert.NotNil(t, uow.ReportRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Encounter Repository", func(t *testing.T) {
		count, err := uow.EncounterRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Encounter count: %d", count)
	})

	t.Run("Check Transactional Encounter Lifecycle", func(t *testing.T) {
		ctx := context.Background()
		userId := "integration-" + uuid.NewString()
		now := time.Now().UTC()

		enc := &entity.Encounter{
			Id:     uuid.New(),
			UserId: userId,
			Status: encounter.StatusActive,
			State:  encounter.State{"flow_step": "recording"},
		}
		enc.Touch(now)

		tx := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, tx.Begin(ctx))
		defer tx.Rollback()

		require.NoError(t, tx.EncounterRepository().Create(ctx, enc))

		locked, err := tx.EncounterRepository().FindOne(ctx,
			specification.ByID{ID: enc.Id},
			specification.OwnedBy{UserID: userId},
			specification.ForUpdate{},
		)
		require.NoError(t, err)
		require.NotNil(t, locked)

		locked.Status = encounter.StatusPaused
		locked.PausedAt = &now
		require.NoError(t, tx.EncounterRepository().Update(ctx, locked))
		require.NoError(t, tx.Commit())

		found, err := uowFactory.NewUnitOfWork(ctx).EncounterRepository().FindOne(ctx, specification.ByID{ID: enc.Id})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, encounter.StatusPaused, found.Status)
		assert.Equal(t, "recording", found.State["flow_step"])

		// Cleanup
		require.NoError(t, gormDB.Where("user_id = ?", userId).Delete(&model.Encounter{}).Error)
	})

	t.Run("Check Rollback Discards Writes", func(t *testing.T) {
		ctx := context.Background()
		userId := "integration-" + uuid.NewString()

		tx := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, tx.Begin(ctx))
		require.NoError(t, tx.EncounterRepository().Create(ctx, &entity.Encounter{
			Id:     uuid.New(),
			UserId: userId,
			Status: encounter.StatusActive,
			State:  encounter.State{},
		}))
		require.NoError(t, tx.Rollback())

		count, err := uowFactory.NewUnitOfWork(ctx).EncounterRepository().Count(ctx, specification.OwnedBy{UserID: userId})
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}
