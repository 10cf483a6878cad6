package service

import (
	"context"
	"fmt"
	"time"

	"amanai-be/internal/dto"
	"amanai-be/internal/entity"
	"amanai-be/internal/pkg/logger"
	"amanai-be/internal/repository/specification"
	"amanai-be/internal/repository/unitofwork"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/encounter"
	"amanai-be/pkg/events"

	"github.com/google/uuid"
)

const (
	defaultEncounterListLimit = 50
	maxEncounterListLimit     = 200
)

var openStatuses = []string{string(encounter.StatusActive), string(encounter.StatusPaused)}

type IEncounterService interface {
	Start(ctx context.Context, userId string, req *dto.StartEncounterRequest) (*dto.EncounterResponse, error)
	List(ctx context.Context, userId string, req *dto.ListEncountersRequest) ([]*dto.EncounterResponse, error)
	Active(ctx context.Context, userId string) (*dto.EncounterResponse, error)
	Get(ctx context.Context, userId string, id uuid.UUID) (*dto.EncounterResponse, error)
	Pause(ctx context.Context, userId string, id uuid.UUID, req *dto.PauseEncounterRequest) (*dto.EncounterResponse, error)
	Resume(ctx context.Context, userId string, id uuid.UUID) (*dto.EncounterResponse, error)
	Complete(ctx context.Context, userId string, id uuid.UUID) (*dto.EncounterResponse, error)
	Cancel(ctx context.Context, userId string, id uuid.UUID) (*dto.EncounterResponse, error)
	AppendMessage(ctx context.Context, userId string, id uuid.UUID, req *dto.AppendMessageRequest) (*dto.EncounterResponse, error)
}

// OpenEncounterError is returned by Start when the owner already has an
// active or paused encounter. The existing id travels in the error details.
type OpenEncounterError struct {
	ExistingId uuid.UUID
	Status     encounter.Status
}

func (e *OpenEncounterError) Error() string {
	return fmt.Sprintf("encounter %s is already %s", e.ExistingId, e.Status)
}

func (e *OpenEncounterError) Unwrap() error {
	return apperror.Conflict("An active or paused encounter already exists")
}

func (e *OpenEncounterError) Details() any {
	return map[string]interface{}{
		"encounter_id": e.ExistingId,
		"status":       e.Status,
	}
}

type encounterService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	logger     logger.ILogger
	now        func() time.Time
}

func NewEncounterService(
	uowFactory unitofwork.RepositoryFactory,
	publisher events.Publisher,
	log logger.ILogger,
) IEncounterService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &encounterService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *encounterService) Start(ctx context.Context, userId string, req *dto.StartEncounterRequest) (*dto.EncounterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	existing, err := uow.EncounterRepository().FindOne(ctx,
		specification.OwnedBy{UserID: userId},
		specification.ByStatuses{Statuses: openStatuses},
		specification.ForUpdate{},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &OpenEncounterError{ExistingId: existing.Id, Status: existing.Status}
	}

	now := s.now()
	var initial encounter.State
	if req != nil {
		initial = req.State
	}
	enc := &entity.Encounter{
		Id:        uuid.New(),
		UserId:    userId,
		Status:    encounter.StatusActive,
		State:     encounter.MergeState(nil, initial),
		CreatedAt: now,
		UpdatedAt: now,
	}
	enc.Touch(now)

	if err := uow.EncounterRepository().Create(ctx, enc); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("EncounterService", "Encounter started", map[string]interface{}{
		"encounter_id": enc.Id.String(),
		"user_id":      userId,
	})
	s.publish(ctx, events.EncounterStarted, enc)
	return toEncounterResponse(enc), nil
}

func (s *encounterService) List(ctx context.Context, userId string, req *dto.ListEncountersRequest) ([]*dto.EncounterResponse, error) {
	limit, offset := defaultEncounterListLimit, 0
	var statuses []string
	if req != nil {
		if req.Limit > 0 {
			limit = req.Limit
		}
		if limit > maxEncounterListLimit {
			limit = maxEncounterListLimit
		}
		if req.Offset > 0 {
			offset = req.Offset
		}
		for _, st := range req.Statuses {
			if !validStatus(st) {
				return nil, apperror.Validation(fmt.Sprintf("Unknown encounter status %q", st))
			}
		}
		statuses = req.Statuses
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	encounters, err := uow.EncounterRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.ByStatuses{Statuses: statuses},
		specification.ByRecentActivity{},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.EncounterResponse, 0, len(encounters))
	for _, e := range encounters {
		result = append(result, toEncounterResponse(e))
	}
	return result, nil
}

// Active returns the owner's most recently touched open encounter.
func (s *encounterService) Active(ctx context.Context, userId string) (*dto.EncounterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	enc, err := uow.EncounterRepository().FindOne(ctx,
		specification.OwnedBy{UserID: userId},
		specification.ByStatuses{Statuses: openStatuses},
		specification.ByRecentActivity{},
	)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, apperror.NotFound("No active or paused encounters found")
	}
	return toEncounterResponse(enc), nil
}

func (s *encounterService) Get(ctx context.Context, userId string, id uuid.UUID) (*dto.EncounterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	enc, err := s.findOwned(ctx, uow, userId, id, false)
	if err != nil {
		return nil, err
	}
	return toEncounterResponse(enc), nil
}

func (s *encounterService) Pause(ctx context.Context, userId string, id uuid.UUID, req *dto.PauseEncounterRequest) (*dto.EncounterResponse, error) {
	return s.transition(ctx, userId, id, events.EncounterPaused, func(enc *entity.Encounter, now time.Time) (bool, error) {
		if enc.Status != encounter.StatusActive {
			return false, apperror.Conflict("Only active encounters can be paused")
		}
		enc.Status = encounter.StatusPaused
		enc.PausedAt = &now
		if req != nil {
			enc.State = encounter.MergeState(enc.State, req.State)
		}
		return true, nil
	})
}

func (s *encounterService) Resume(ctx context.Context, userId string, id uuid.UUID) (*dto.EncounterResponse, error) {
	return s.transition(ctx, userId, id, events.EncounterResumed, func(enc *entity.Encounter, now time.Time) (bool, error) {
		if enc.Status != encounter.StatusPaused {
			return false, apperror.Conflict("Only paused encounters can be resumed")
		}
		enc.Status = encounter.StatusActive
		enc.ResumedAt = &now
		return true, nil
	})
}

func (s *encounterService) Complete(ctx context.Context, userId string, id uuid.UUID) (*dto.EncounterResponse, error) {
	return s.transition(ctx, userId, id, events.EncounterCompleted, func(enc *entity.Encounter, now time.Time) (bool, error) {
		if enc.Status.Terminal() {
			return false, nil
		}
		enc.Status = encounter.StatusCompleted
		return true, nil
	})
}

func (s *encounterService) Cancel(ctx context.Context, userId string, id uuid.UUID) (*dto.EncounterResponse, error) {
	return s.transition(ctx, userId, id, events.EncounterCancelled, func(enc *entity.Encounter, now time.Time) (bool, error) {
		if enc.Status.Terminal() {
			return false, nil
		}
		enc.Status = encounter.StatusCancelled
		return true, nil
	})
}

func (s *encounterService) AppendMessage(ctx context.Context, userId string, id uuid.UUID, req *dto.AppendMessageRequest) (*dto.EncounterResponse, error) {
	role := encounter.Role(req.Role)
	if role == "" {
		role = encounter.RoleUser
	}
	if !role.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("Unknown message role %q", req.Role))
	}

	return s.transition(ctx, userId, id, events.EncounterMessageAppended, func(enc *entity.Encounter, now time.Time) (bool, error) {
		if enc.Status != encounter.StatusActive {
			return false, apperror.Conflict("Cannot add messages unless encounter is active")
		}

		state := encounter.MergeState(enc.State, nil)
		messages, _ := state[encounter.StateMessages].([]interface{})
		next := make([]interface{}, 0, len(messages)+1)
		next = append(next, messages...)
		next = append(next, map[string]interface{}{
			"role":      string(role),
			"content":   req.Content,
			"timestamp": now.Format(time.RFC3339Nano),
		})
		state[encounter.StateMessages] = next

		if req.FlowStep != "" {
			state[encounter.StateFlowStep] = req.FlowStep
		}
		if len(req.Context) > 0 {
			existing, _ := state[encounter.StateContext].(map[string]interface{})
			state[encounter.StateContext] = map[string]interface{}(encounter.MergeState(existing, req.Context))
		}

		enc.State = state
		return true, nil
	})
}

// transition loads the encounter under a row lock, applies fn and persists the
// result. fn returning false leaves the row untouched and publishes nothing.
func (s *encounterService) transition(
	ctx context.Context,
	userId string,
	id uuid.UUID,
	eventType string,
	fn func(enc *entity.Encounter, now time.Time) (bool, error),
) (*dto.EncounterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	enc, err := s.findOwned(ctx, uow, userId, id, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	changed, err := fn(enc, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return toEncounterResponse(enc), nil
	}

	enc.UpdatedAt = now
	enc.Touch(now)
	if err := uow.EncounterRepository().Update(ctx, enc); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("EncounterService", "Encounter updated", map[string]interface{}{
		"encounter_id": enc.Id.String(),
		"event":        eventType,
		"status":       string(enc.Status),
	})
	s.publish(ctx, eventType, enc)
	return toEncounterResponse(enc), nil
}

func (s *encounterService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId string, id uuid.UUID, lock bool) (*entity.Encounter, error) {
	specs := []specification.Specification{specification.ByID{ID: id}}
	if lock {
		specs = append(specs, specification.ForUpdate{})
	}
	enc, err := uow.EncounterRepository().FindOne(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, apperror.NotFound("Encounter not found")
	}
	if enc.UserId != userId {
		return nil, apperror.Forbidden("Encounter does not belong to this user")
	}
	return enc, nil
}

func (s *encounterService) publish(ctx context.Context, eventType string, enc *entity.Encounter) {
	event := events.NewEncounterEvent(eventType, enc.UserId, enc.Id.String(), string(enc.Status))
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("EncounterService", "Failed to publish encounter event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func validStatus(st string) bool {
	switch encounter.Status(st) {
	case encounter.StatusActive, encounter.StatusPaused, encounter.StatusCompleted, encounter.StatusCancelled:
		return true
	}
	return false
}

func toEncounterResponse(e *entity.Encounter) *dto.EncounterResponse {
	state := e.State
	if state == nil {
		state = encounter.State{}
	}
	return &dto.EncounterResponse{
		Id:             e.Id,
		UserId:         e.UserId,
		Status:         string(e.Status),
		State:          state,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		PausedAt:       e.PausedAt,
		ResumedAt:      e.ResumedAt,
		LastActivityAt: e.LastActivityAt,
	}
}
